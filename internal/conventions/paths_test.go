package conventions_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/slok/apkjob/internal/conventions"
)

func TestPaths(t *testing.T) {
	assert.Equal(t, "/home/u/.apkjob", conventions.DataDir("/home/u"))
	assert.Equal(t, "/home/u/.apkjob/history.db", conventions.HistoryDBPath("/home/u"))
	assert.Equal(t, "/home/u/.apkjob/config.yaml", conventions.ConfigPath("/home/u"))
}

func TestDownloadFilename(t *testing.T) {
	tests := map[string]struct {
		name string
		exp  string
	}{
		"A plain name should be kept.":                 {name: "modified_app.apk", exp: "modified_app.apk"},
		"An empty name should use the default.":        {name: "", exp: "modified.apk"},
		"A path should be reduced to its base.":        {name: "../../etc/app.apk", exp: "app.apk"},
		"A windows path should be reduced to its base": {name: `C:\tmp\app.apk`, exp: "app.apk"},
		"A parent reference should use the default.":   {name: "..", exp: "modified.apk"},
		"A root path should use the default.":          {name: "/", exp: "modified.apk"},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.exp, conventions.DownloadFilename(test.name))
		})
	}
}
