package types

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// ErrInvalidAppID is returned when an app reference cannot be resolved.
var ErrInvalidAppID = errors.New("invalid app id")

var (
	playStoreURL = regexp.MustCompile(`play\.google\.com/store/apps/details\?id=([a-zA-Z0-9._]+)`)
	packageID    = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*$`)
)

// App is a named Play Store package.
type App struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// DefaultApps is the built-in catalogue offered by the dashboard.
func DefaultApps() map[string]string {
	return map[string]string{
		"Airtel Thanks": "com.myairtelapp",
		"MyJio":         "com.jio.myjio",
		"Singtel":       "com.singtel.mysingtel",
		"StarHub":       "com.starhub.happy",
		"M1":            "com.m1.android.mym1plus",
		"TPG":           "sg.tpgmobile.app",
	}
}

// SortedApps turns a name → id map into a list ordered by name.
func SortedApps(m map[string]string) []App {
	out := make([]App, 0, len(m))
	for name, id := range m {
		out = append(out, App{Name: name, ID: id})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ExtractAppID accepts either a package id or a Play Store details URL.
func ExtractAppID(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if m := playStoreURL.FindStringSubmatch(ref); m != nil {
		return m[1], nil
	}
	if packageID.MatchString(ref) {
		return ref, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidAppID, ref)
}
