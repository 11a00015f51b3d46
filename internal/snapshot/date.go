package snapshot

import (
	"errors"
	"fmt"
	"time"
)

// DirLayout is the fixed layout snapshot directories are named with.
const DirLayout = "2006-01-02_15-04-05"

// ErrMalformedName marks a directory name that does not parse as a snapshot
// timestamp.
var ErrMalformedName = errors.New("malformed snapshot name")

// ParseDirTime decodes the observation instant from a snapshot directory
// name. loc interprets the wall-clock value; nil means local time.
func ParseDirTime(name string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(DirLayout, name, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrMalformedName, name, err)
	}
	return t, nil
}
