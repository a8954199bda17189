package endpoint

import (
	"net/http"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/lifecycle/component"
)

// startTime records when the process started for uptime calculation.
var startTime = time.Now()

// Info returns a handler that reports service identity, build metadata and
// the current run.
func Info(info ServiceInfo, inspector component.Inspector) gin.HandlerFunc {
	commit, dirty := vcsInfo()
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service":    info.Name,
			"version":    info.Version,
			"git_commit": commit,
			"is_dirty":   dirty,
			"run_id":     inspector.RunID(),
			"components": len(inspector.Names()),
			"go_version": runtime.Version(),
			"uptime":     time.Since(startTime).String(),
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// vcsInfo reads the short commit and dirty flag stamped by the go tool.
func vcsInfo() (commit string, dirty bool) {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return "", false
	}
	for _, setting := range bi.Settings {
		switch setting.Key {
		case "vcs.revision":
			commit = setting.Value
			if len(commit) > 7 {
				commit = commit[:7]
			}
		case "vcs.modified":
			dirty = setting.Value == "true"
		}
	}
	return commit, dirty
}
