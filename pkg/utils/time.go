package utils

import "time"

// HTTPDate formats t for Last-Modified style headers
func HTTPDate(t time.Time) string {
	return t.UTC().Format(http1123)
}

const http1123 = "Mon, 02 Jan 2006 15:04:05 GMT"
