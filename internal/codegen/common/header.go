package common

import "fmt"

// FileHeader returns the banner placed at the top of every generated file,
// using the given line comment prefix (e.g. "//").
func FileHeader(comment, what string) string {
	version, err := GetVersion()
	if err != nil {
		version = "unknown"
	}
	return fmt.Sprintf("%s Code generated by dynbind %s (%s). DO NOT EDIT.\n%s Regenerate by running dynbind over the annotated source directories.\n",
		comment, version, what, comment)
}
