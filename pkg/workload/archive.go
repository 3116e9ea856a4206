/*
Copyright © 2025 k8s-run Authors
SPDX-License-Identifier: Apache-2.0
*/

package workload

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/k8s-run/k8r/pkg/errors"
	"github.com/k8s-run/k8r/pkg/naming"
)

// ArchiveKey is the single ConfigMap data key holding the base64-encoded
// source archive.
const ArchiveKey = "source.tar.gz"

// maxEncodedArchive approximates the cluster's object-size ceiling. Oversized
// archives are not chunked; callers should keep directory mode small or
// switch to GitHub mode.
const maxEncodedArchive = 1 << 20

// BuildArchive produces a gzip-compressed tar of every regular file under
// dir, with paths relative to dir.
func BuildArchive(dir string) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}

		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		hdr.Name = filepath.ToSlash(rel)
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(tw, f)
		return err
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("archiving directory %q", dir), err)
	}

	if err := tw.Close(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "closing tar writer", err)
	}
	if err := gz.Close(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "closing gzip writer", err)
	}

	return buf.Bytes(), nil
}

// SourceConfigMap wraps an archive in the "<job>-source" ConfigMap, labeled
// like the workload it belongs to. The archive is stored base64-encoded
// under ArchiveKey and decoded by the pod's setup step.
func SourceConfigMap(spec *Spec, archive []byte) *corev1.ConfigMap {
	encoded := base64.StdEncoding.EncodeToString(archive)
	if len(encoded) > maxEncodedArchive {
		slog.Warn("source archive exceeds the cluster object-size ceiling, creation will likely fail",
			"name", naming.SourceConfigMapName(spec.Name),
			"encoded_bytes", len(encoded))
	}

	return &corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{
			Name:      naming.SourceConfigMapName(spec.Name),
			Namespace: spec.Namespace,
			Labels:    naming.WorkloadLabels(spec.Name, spec.SourceKind, spec.Kind == KindDeployment),
		},
		Data: map[string]string{
			ArchiveKey: encoded,
		},
	}
}
