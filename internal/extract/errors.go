package extract

import "errors"

var (
	errNoFetcher      = errors.New("remote documents are disabled")
	errEmptyReference = errors.New("reference has no URL, path or data")
	errRobotsDisallow = errors.New("disallowed by robots.txt")
	errBodyTooLarge   = errors.New("response body exceeds size limit")
)
