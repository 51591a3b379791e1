package places

import (
	"strings"

	"github.com/agentstation/placemap/pkg/errors"
)

// Separator splits a qualified id into namespace and local id.
const Separator = ":"

// QualifiedID joins a namespace and a local id.
func QualifiedID(namespace, id string) string {
	return namespace + Separator + id
}

// SplitQualifiedID splits "<namespace>:<local-id>". Only the first
// separator counts, so local ids may themselves contain colons.
func SplitQualifiedID(qid string) (namespace, id string, err error) {
	namespace, id, found := strings.Cut(qid, Separator)
	if !found {
		return "", "", errors.NewQualifiedIDError(qid, "missing namespace separator")
	}
	if namespace == "" {
		return "", "", errors.NewQualifiedIDError(qid, "empty namespace")
	}
	if id == "" {
		return "", "", errors.NewQualifiedIDError(qid, "empty local id")
	}
	return namespace, id, nil
}

// Namespace returns the namespace prefix of a qualified id.
func Namespace(qid string) (string, error) {
	ns, _, err := SplitQualifiedID(qid)
	return ns, err
}
