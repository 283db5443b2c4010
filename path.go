package dbuswire

import (
	"errors"
	"strings"
)

// ObjectPath is a slash-separated path identifying an object on a
// DBus peer, for example "/org/freedesktop/DBus".
type ObjectPath string

// ValidatePath reports whether path is a well-formed object path. A
// valid path starts with a slash, has no empty components, and has no
// trailing slash unless the entire path is "/".
func ValidatePath(path string) error {
	switch {
	case path == "":
		return errors.New("empty object path")
	case path[0] != '/':
		return errors.New("object path does not start with /")
	case path == "/":
		return nil
	case path[len(path)-1] == '/':
		return errors.New("object path has a trailing /")
	case strings.Contains(path, "//"):
		return errors.New("object path has an empty component")
	}
	return nil
}

// DecomposePath validates path and splits it into its components.
// The root path "/" has no components.
func DecomposePath(path string) ([]string, error) {
	if err := ValidatePath(path); err != nil {
		return nil, err
	}
	if path == "/" {
		return nil, nil
	}
	return strings.Split(path[1:], "/"), nil
}

// PathFromComponents returns the ObjectPath with the given
// components.
func PathFromComponents(components []string) (ObjectPath, error) {
	if err := checkComponents(components); err != nil {
		return "", err
	}
	return pathFromComponents(components), nil
}

func pathFromComponents(components []string) ObjectPath {
	if len(components) == 0 {
		return "/"
	}
	return ObjectPath("/" + strings.Join(components, "/"))
}

func checkComponents(components []string) error {
	for _, c := range components {
		if c == "" {
			return errors.New("empty object path component")
		}
		if strings.Contains(c, "/") {
			return errors.New("object path component contains /")
		}
	}
	return nil
}

// Valid reports whether p is a well-formed object path.
func (p ObjectPath) Valid() bool {
	return ValidatePath(string(p)) == nil
}

// Components returns the components of p, or nil if p is invalid.
func (p ObjectPath) Components() []string {
	ret, err := DecomposePath(string(p))
	if err != nil {
		return nil
	}
	return ret
}

// Child returns the path of the object named name under p.
func (p ObjectPath) Child(name string) ObjectPath {
	if p == "/" {
		return ObjectPath("/" + name)
	}
	return ObjectPath(string(p) + "/" + name)
}

// Parent returns the parent of p. The parent of "/" is "/".
func (p ObjectPath) Parent() ObjectPath {
	i := strings.LastIndexByte(string(p), '/')
	if i <= 0 {
		return "/"
	}
	return p[:i]
}

// IsChildOf reports whether p is a descendant of parent.
func (p ObjectPath) IsChildOf(parent ObjectPath) bool {
	if p == parent {
		return false
	}
	if parent == "/" {
		return strings.HasPrefix(string(p), "/")
	}
	return strings.HasPrefix(string(p), string(parent)+"/")
}

func (p ObjectPath) String() string { return string(p) }
