// Package version provides version information for go-httpmessage
package version

// Version is the current version of the go-httpmessage library
const Version = "0.3.0"

// GetVersion returns the current version of the library
func GetVersion() string {
	return Version
}

// UserAgent is sent by the client when a request has no User-Agent
func UserAgent() string {
	return "go-httpmessage/" + Version
}
