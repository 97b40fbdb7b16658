package cli

import (
	"encoding/json"
	"net/http"

	"github.com/roadwatch/roadwatch-web/internal/version"
)

type VersionHandler struct{}

func (vh *VersionHandler) ServeHTTP(rw http.ResponseWriter, _ *http.Request) {
	resp := &version.Response{
		Repo:             version.GitRepo,
		LatestReleaseTag: version.LatestReleaseTag,
		GitShortSha:      version.GitShortSha,
	}

	enc := json.NewEncoder(rw)
	enc.Encode(resp)
}
