package output

import "strings"

// VersionInfo describes the build and the formats it reads and writes.
type VersionInfo struct {
	Version        string   `json:"version"`
	SnapshotFormat int      `json:"snapshot_format"`
	Targets        []string `json:"targets"`
	GoVersion      string   `json:"go_version"`
}

// Version writes build information.
func (r *Renderer) Version(info VersionInfo) error {
	if r.IsJSON() {
		return r.JSON(info)
	}

	r.Println(r.styles.Header.Render("leapdiff v" + info.Version))
	r.Printf("snapshot format  %d\n", info.SnapshotFormat)
	r.Printf("targets          %s\n", strings.Join(info.Targets, ", "))
	r.Printf("go               %s\n", info.GoVersion)
	return nil
}
