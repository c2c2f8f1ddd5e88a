// Package core implements the job-execution pipeline shared by all
// codec engines: engine descriptors and their operation table, session
// lifecycle, job dispatch, the per-processing-unit active-session
// tracking used for interrupt attribution, and the watchdog that
// recovers the hardware from lockups.
//
// One Proc represents one physical hardware instance (the decoder unit
// or the encoder unit). At most one job is in flight per Proc; the
// external scheduler enforces this by admission, and the Proc enforces
// it again with a weighted semaphore so contract violations surface as
// errors instead of corrupted hardware state.
package core
