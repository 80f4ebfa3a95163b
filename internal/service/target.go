package service

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"cubazzar-relay/internal/model"
)

// ErrForbiddenTarget is returned when a caller-supplied URL does not point at
// the configured upstream.
var ErrForbiddenTarget = errors.New("invalid target url")

// ResolveTarget turns t into an absolute URL on base. PathTarget always lands
// on base; ExplicitTarget is accepted only when its scheme and host equal
// base's.
func ResolveTarget(base *url.URL, t model.Target) (string, error) {
	switch t := t.(type) {
	case model.PathTarget:
		return resolvePath(base, t), nil
	case model.ExplicitTarget:
		return resolveExplicit(base, t)
	default:
		return "", fmt.Errorf("unsupported target type %T", t)
	}
}

func resolvePath(base *url.URL, t model.PathTarget) string {
	var path strings.Builder
	path.WriteString(strings.TrimSuffix(base.EscapedPath(), "/"))
	for _, seg := range t.Segments {
		// Dot segments would let the path climb out of base.Path.
		if skipSegment(seg) {
			continue
		}
		path.WriteByte('/')
		path.WriteString(seg)
	}
	if path.Len() == 0 {
		path.WriteByte('/')
	}

	target := base.Scheme + "://" + base.Host + path.String()
	if t.RawQuery != "" {
		target += "?" + t.RawQuery
	}
	return target
}

func skipSegment(seg string) bool {
	if dec, err := url.PathUnescape(seg); err == nil {
		seg = dec
	}
	return seg == "" || seg == "." || seg == ".."
}

func resolveExplicit(base *url.URL, t model.ExplicitTarget) (string, error) {
	decoded, err := url.PathUnescape(t.Encoded)
	if err != nil || decoded == "" {
		return "", ErrForbiddenTarget
	}

	u, err := url.Parse(decoded)
	if err != nil || !u.IsAbs() || u.User != nil {
		return "", ErrForbiddenTarget
	}
	if !strings.EqualFold(u.Scheme, base.Scheme) || !strings.EqualFold(u.Host, base.Host) {
		return "", ErrForbiddenTarget
	}

	u.Fragment = ""
	u.RawFragment = ""
	return u.String(), nil
}
