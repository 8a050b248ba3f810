// Package process supervises helper-tool child processes.
//
// A Supervisor owns a registry of named tool slots. Each slot holds at most
// one live child process; starting a tool that is already registered asks the
// old child to terminate before the replacement is registered.
//
// # Supervisor
//
//	sup := process.NewSupervisor(process.WithSink(sink))
//	defer sup.StopAll()
//
//	if err := sup.Start("parser", "php", "/opt/tools/parser.php"); err != nil {
//	    return err
//	}
//	if sup.IsRunning("parser") {
//	    _ = sup.Stop("parser")
//	}
//
// Termination is always a request: Stop and StopAll send a kill to the child
// and return without waiting for it to exit. IsRunning probes the child
// without blocking and drops the slot when the child has exited on its own.
//
// # Output relay
//
// Every started child gets two relay goroutines, one for stdout and one for
// stderr. Each relay splits its stream into lines and hands every complete
// line to the configured Sink as an OutputEvent. A trailing fragment without
// a newline is discarded when the stream closes. Relays end on their own when
// the pipe closes and are never waited for.
//
// # Thread Safety
//
// Supervisor is safe for concurrent use. Sinks are called from relay
// goroutines and must be safe for concurrent use as well.
package process
