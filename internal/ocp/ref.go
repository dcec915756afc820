package ocp

import (
	"fmt"

	"k8s.io/apimachinery/pkg/runtime/schema"
)

// Ref addresses one resource, or a set of resources when Name is empty.
type Ref struct {
	GVK       schema.GroupVersionKind
	Namespace string
	Name      string
	// Selector is a label selector used by List.
	Selector string
}

func (r Ref) String() string {
	s := r.GVK.Kind
	if r.Namespace != "" {
		s += " " + r.Namespace + "/"
	} else {
		s += " "
	}
	if r.Name != "" {
		s += r.Name
	} else {
		s += "*"
	}
	if r.Selector != "" {
		s += fmt.Sprintf(" (%s)", r.Selector)
	}
	return s
}
