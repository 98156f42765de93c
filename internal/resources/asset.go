package resources

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Faultbox/gltfio/pkg/gltfio"
)

var glbMagic = []byte("glTF")

// OpenAsset reads a .gltf or .glb file and builds it with the loader. The
// container is chosen by content, not extension. When the manager has no base
// path, relative URIs resolve against the file's directory from then on.
func (m *Manager) OpenAsset(l *gltfio.Loader, path string) (gltfio.Asset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	if m.base == "" {
		m.base = dir
	}

	var a gltfio.Asset
	if bytes.HasPrefix(data, glbMagic) {
		a, err = l.CreateAssetFromBinary(data)
	} else {
		a, err = l.CreateAssetFromJSON(data, m.base)
	}
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", filepath.Base(path), err)
	}

	m.log.Info("asset loaded",
		zap.String("path", path),
		zap.Int("entities", len(a.Entities())),
		zap.Int("renderables", len(a.Renderables())),
		zap.Int("warnings", len(a.Warnings())),
	)
	return a, nil
}
