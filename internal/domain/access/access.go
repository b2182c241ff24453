// Package access evaluates permission trees returned by the auth service.
package access

import (
	"fmt"
)

// Option is the access level a permission node grants
type Option string

const (
	Allowed          Option = "allowed"
	Denied           Option = "denied"
	ApprovalRequired Option = "approval_required"
)

// Node is one entry of a permission tree. Menus carry children, leaves
// carry a codename and an option.
type Node struct {
	ID       int64   `json:"id,omitempty"`
	Name     string  `json:"name,omitempty"`
	Codename string  `json:"codename"`
	Type     Option  `json:"type"`
	Children []*Node `json:"children,omitempty"`
}

// DeniedError reports a request refused by the permission tree
type DeniedError struct {
	Codename string
	NotFound bool
}

func (e *DeniedError) Error() string {
	if e.NotFound {
		return fmt.Sprintf("Permission %s not found. Access denied by default.", e.Codename)
	}
	return fmt.Sprintf("Access denied for permission: %s", e.Codename)
}

// Evaluate walks the tree depth first. The first node carrying codename
// with a known option decides: Denied fails at once, Allowed and
// ApprovalRequired are returned. A codename found nowhere is denied.
func Evaluate(tree []*Node, codename string) (Option, error) {
	opt, err := search(tree, codename)
	if err != nil {
		return "", err
	}
	if opt == "" {
		return "", &DeniedError{Codename: codename, NotFound: true}
	}
	return opt, nil
}

func search(nodes []*Node, codename string) (Option, error) {
	for _, n := range nodes {
		if n == nil {
			continue
		}
		if n.Codename == codename {
			switch n.Type {
			case Denied:
				return "", &DeniedError{Codename: codename}
			case Allowed, ApprovalRequired:
				return n.Type, nil
			}
		}
		if len(n.Children) > 0 {
			opt, err := search(n.Children, codename)
			if err != nil || opt != "" {
				return opt, err
			}
		}
	}
	return "", nil
}
