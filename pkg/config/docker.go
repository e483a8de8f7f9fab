package config

import (
	"net/url"
	"os"
	"sync"
)

var (
	isDockerOnce   sync.Once
	isDockerResult bool
)

// IsRunningInDocker returns true if the process runs inside a Docker container.
// Detection relies on /.dockerenv and is cached after the first call.
func IsRunningInDocker() bool {
	isDockerOnce.Do(func() {
		_, err := os.Stat("/.dockerenv")
		isDockerResult = err == nil
	})
	return isDockerResult
}

// ResolveHostForDocker maps loopback hosts to host.docker.internal when running
// in a container so that Postgres, Redis and Mongo on the host stay reachable.
func ResolveHostForDocker(host string) string {
	if !IsRunningInDocker() {
		return host
	}
	if isLoopback(host) {
		return "host.docker.internal"
	}
	return host
}

// ResolveURIForDocker applies ResolveHostForDocker to the host of a URI
// such as mongodb://localhost:27017. Unparseable URIs are returned unchanged.
func ResolveURIForDocker(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || u.Host == "" {
		return uri
	}
	host := u.Hostname()
	resolved := ResolveHostForDocker(host)
	if resolved == host {
		return uri
	}
	if port := u.Port(); port != "" {
		u.Host = resolved + ":" + port
	} else {
		u.Host = resolved
	}
	return u.String()
}

func isLoopback(host string) bool {
	return host == "localhost" || host == "127.0.0.1"
}
