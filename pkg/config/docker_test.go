package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveHostForDocker_NonLoopbackUnchanged(t *testing.T) {
	for _, host := range []string{"mydb.example.com", "192.168.1.100", "host.docker.internal"} {
		assert.Equal(t, host, ResolveHostForDocker(host))
	}
}

func TestResolveHostForDocker_Loopback(t *testing.T) {
	for _, host := range []string{"localhost", "127.0.0.1"} {
		result := ResolveHostForDocker(host)
		if IsRunningInDocker() {
			assert.Equal(t, "host.docker.internal", result)
		} else {
			assert.Equal(t, host, result)
		}
	}
}

func TestResolveURIForDocker(t *testing.T) {
	assert.Equal(t, "mongodb://db.example.com:27017", ResolveURIForDocker("mongodb://db.example.com:27017"))
	assert.Equal(t, "::not a uri", ResolveURIForDocker("::not a uri"))

	result := ResolveURIForDocker("mongodb://localhost:27017/zenarog")
	if IsRunningInDocker() {
		assert.Equal(t, "mongodb://host.docker.internal:27017/zenarog", result)
	} else {
		assert.Equal(t, "mongodb://localhost:27017/zenarog", result)
	}
}
