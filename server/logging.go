package server

import (
	"io"
	"log"
	"os"
	"path/filepath"
)

// SetupLogging sends the standard logger to dir/app.log and stdout. The
// caller closes the returned file.
func SetupLogging(dir string) (*os.File, error) {
	// Create logs directory if it doesn't exist
	err := os.MkdirAll(dir, 0755)
	if err != nil {
		return nil, err
	}

	logFileName := filepath.Join(dir, "app.log")
	logFile, err := os.OpenFile(logFileName, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}

	// Running under air already captures stdout
	if os.Getenv("AIR_RESTART_COUNT") != "" {
		log.SetOutput(logFile)
	} else {
		mw := io.MultiWriter(os.Stdout, logFile)
		log.SetOutput(mw)
	}

	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	return logFile, nil
}
