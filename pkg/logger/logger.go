package logger

import (
	"fmt"
	"log"
	"os"
)

// New returns a stdlib-backed logger with component prefix. Used where a
// collaborator expects a Printf-style logger (e.g. the cron driver).
func New(component string) *log.Logger {
	prefix := fmt.Sprintf("[%s] ", component)
	return log.New(os.Stdout, prefix, log.LstdFlags)
}
