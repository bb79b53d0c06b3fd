package service

import "errors"

var (
	ErrAlreadyOpen        = errors.New("browser is already open")
	ErrLaunch             = errors.New("failed to launch browser")
	ErrNotOpen            = errors.New("browser is not opened")
	ErrNavigation         = errors.New("navigation failed")
	ErrCapture            = errors.New("failed to capture page")
	ErrIO                 = errors.New("file write failed")
	ErrInvalidURL         = errors.New("invalid url")
	ErrUnsupportedBrowser = errors.New("unsupported browser type")
)
