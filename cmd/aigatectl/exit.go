package main

import "net/http"

type exitError struct {
	code    int
	message string
	silent  bool
}

func (e exitError) Error() string {
	return e.message
}

func exitSilent(code int) error {
	return exitError{code: code, silent: true}
}

// exitCodeForStatus maps API failures to process exit codes: 2 for caller
// errors, 3 for gateway or upstream failures.
func exitCodeForStatus(status int) int {
	if status >= http.StatusBadRequest && status < http.StatusInternalServerError {
		return 2
	}
	return 3
}
