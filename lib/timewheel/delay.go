package timewheel

import "time"

// expirationWheel is the single time wheel backing key expiration (EXPIRE,
// PEXPIRE, SET ... EX) for the whole process; one wheel is enough since
// every database shares the same clock.
var expirationWheel = New(time.Second, 3600)

func init() {
	expirationWheel.Start()
}

// Delay schedules job to run after duration, keyed so a later call with
// the same key replaces (and effectively postpones) the earlier one.
func Delay(duration time.Duration, key string, job func()) {
	expirationWheel.AddJob(duration, key, job)
}

// At schedules job to run at the given wall-clock time.
func At(at time.Time, key string, job func()) {
	expirationWheel.AddJob(at.Sub(time.Now()), key, job)
}

// Cancel removes a pending job, used when a key is deleted or overwritten
// before its expiration fires.
func Cancel(key string) {
	expirationWheel.RemoveJob(key)
}
