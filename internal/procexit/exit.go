// Package procexit implements the exit-code contract of §6: 0 on clean
// shutdown, -1 after a 1s grace delay (to let buffered logs flush) on
// fatal misconfiguration (§7). Grounded on the daemon shutdown shape of
// the teacher repository's reference daemon
// (References/orion-prototipe/cmd/oriond/main.go), which separates a
// run() returning an error from main()'s os.Exit call.
package procexit

import (
	"log/slog"
	"os"
	"time"
)

// GracePeriod is the delay before exiting on fatal misconfiguration,
// giving a buffered log handler time to flush.
const GracePeriod = 1 * time.Second

// Fatal logs msg at error level, sleeps GracePeriod, then exits with -1.
// Call this only for configuration failures (§7); recoverable errors
// must never reach this path.
func Fatal(log *slog.Logger, msg string, args ...any) {
	log.Error(msg, args...)
	time.Sleep(GracePeriod)
	os.Exit(-1)
}
