package ocp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/apimachinery/pkg/util/yaml"
)

// DecodeManifests splits multi-document YAML into objects, skipping empty
// documents.
func DecodeManifests(manifests []byte) ([]*unstructured.Unstructured, error) {
	decoder := yaml.NewYAMLOrJSONDecoder(bytes.NewReader(manifests), 4096)

	var objs []*unstructured.Unstructured
	for docIndex := 0; ; docIndex++ {
		var obj unstructured.Unstructured
		if err := decoder.Decode(&obj); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to decode manifest document %d: %w", docIndex, err)
		}
		if len(obj.Object) == 0 {
			continue
		}
		objs = append(objs, &obj)
	}
	return objs, nil
}

// ApplyManifests applies every document in manifests in order.
func (c *client) ApplyManifests(ctx context.Context, manifests []byte, fieldManager string) error {
	objs, err := DecodeManifests(manifests)
	if err != nil {
		return err
	}
	for _, obj := range objs {
		if err := c.Apply(ctx, obj, fieldManager); err != nil {
			return fmt.Errorf("failed to apply %s %s/%s: %w", obj.GetKind(), obj.GetNamespace(), obj.GetName(), err)
		}
	}
	return nil
}

// Apply applies a single object using Server-Side Apply with forced
// ownership, matching what "oc apply --server-side --force-conflicts" does.
func (c *client) Apply(ctx context.Context, obj *unstructured.Unstructured, fieldManager string) error {
	gvk := obj.GroupVersionKind()
	if gvk.Kind == "" {
		return fmt.Errorf("object has no kind set")
	}

	ri, err := c.resource(gvk, obj.GetNamespace())
	if err != nil {
		return err
	}

	data, err := obj.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal object to JSON: %w", err)
	}

	force := true
	_, err = ri.Patch(ctx, obj.GetName(), types.ApplyPatchType, data, metav1.PatchOptions{
		FieldManager: fieldManager,
		Force:        &force,
	})
	if err != nil {
		return fmt.Errorf("server-side apply failed: %w", err)
	}
	return nil
}
