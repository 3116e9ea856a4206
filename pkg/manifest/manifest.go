/*
Copyright © 2025 k8s-run Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package manifest renders Kubernetes objects as YAML suitable for
// kubectl apply.
package manifest

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
	"k8s.io/apimachinery/pkg/runtime/schema"

	"github.com/k8s-run/k8r/pkg/errors"
)

// Render serializes obj to YAML with the given apiVersion and kind set.
// Server-populated fields (status, null creationTimestamp) are scrubbed so
// the output round-trips through kubectl apply cleanly.
func Render(obj any, gvk schema.GroupVersionKind) ([]byte, error) {
	raw, err := json.Marshal(obj)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "serializing object", err)
	}

	var tree map[string]any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "decoding object tree", err)
	}

	apiVersion, kind := gvk.ToAPIVersionAndKind()
	tree["apiVersion"] = apiVersion
	tree["kind"] = kind
	scrub(tree)

	out, err := yaml.Marshal(tree)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "encoding YAML", err)
	}
	return out, nil
}

// Fprint renders obj and writes it to w preceded by a document separator.
func Fprint(w io.Writer, obj any, gvk schema.GroupVersionKind) error {
	out, err := Render(obj, gvk)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "---\n%s", out); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, "writing manifest", err)
	}
	return nil
}

// scrub removes fields the API server owns.
func scrub(tree map[string]any) {
	delete(tree, "status")
	scrubValue(tree)
}

func scrubValue(v any) {
	switch node := v.(type) {
	case map[string]any:
		if ts, ok := node["creationTimestamp"]; ok && ts == nil {
			delete(node, "creationTimestamp")
		}
		for _, child := range node {
			scrubValue(child)
		}
	case []any:
		for _, child := range node {
			scrubValue(child)
		}
	}
}
