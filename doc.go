// Package vecore drives a fixed-function video codec unit: stateless
// MPEG-2, H.264, H.265 and VP8 decoding plus H.264 encoding, programmed
// entirely through memory-mapped registers.
//
// The hardware performs the per-pixel work; this package owns everything
// around it: engine selection per coded format, session and job
// lifecycles, reference-picture bookkeeping, register programming,
// interrupt classification and watchdog recovery. The external frame
// scheduler, buffer queues and clock/power management stay outside,
// reached through narrow interfaces.
//
// # Getting Started
//
// Create a device for a hardware variant, open a session for a coded
// format and stream jobs through the processing unit:
//
//	device, err := vecore.NewDevice(vecore.DefaultDeviceConfig(vecore.VariantH3))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	session, err := device.OpenSession(core.PixFmtH264Slice)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	session.SetCodedFormat(core.Format{PixelFormat: core.PixFmtH264Slice, Width: 1280, Height: 720})
//	session.SetPictureFormat(core.Format{PixelFormat: core.PixFmtNV12, Width: 1280, Height: 720})
//	// set parameter-set controls, then:
//	session.Start()
//	defer session.Stop()
//
//	device.Decoder().RunJob(session, &core.JobRequest{Coded: coded, Picture: picture})
//
// Completion arrives through the configured core.Completer once the
// interrupt handler calls device.HandleIRQ, or through the watchdog if
// the hardware stalls.
//
// On real hardware the register block sits on an mmap backend; tests and
// development use the in-memory backend, which records every register
// write for inspection.
package vecore
