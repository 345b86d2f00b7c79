package routes

import (
	"errors"
	"strconv"
	"strings"

	"github.com/orgmesh/backend/pkg/mapgraph"
)

var errInvalidCenter = errors.New("invalid center_node_id")

// parseNodeTypes splits a comma-separated list of node type tokens. An
// unknown token is an error naming the offending value.
func parseNodeTypes(csv string) ([]mapgraph.NodeType, error) {
	if strings.TrimSpace(csv) == "" {
		return nil, nil
	}

	var types []mapgraph.NodeType
	for _, token := range strings.Split(csv, ",") {
		if strings.TrimSpace(token) == "" {
			continue
		}
		t, err := mapgraph.ParseNodeType(token)
		if err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, nil
}

func parseStatuses(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}

	var statuses []string
	for _, token := range strings.Split(csv, ",") {
		token = strings.TrimSpace(token)
		if token != "" {
			statuses = append(statuses, token)
		}
	}
	return statuses
}

// parseCenterNodeID splits a node id like "user_12" into an entity
// reference. Node types outside the expandable kinds are reported with the
// offending token.
func parseCenterNodeID(s string) (mapgraph.EntityRef, error) {
	idx := strings.LastIndex(s, "_")
	if idx <= 0 || idx == len(s)-1 {
		return mapgraph.EntityRef{}, errInvalidCenter
	}

	kindToken, idToken := s[:idx], s[idx+1:]
	nodeType, err := mapgraph.ParseNodeType(kindToken)
	if err != nil {
		return mapgraph.EntityRef{}, err
	}
	kind, ok := mapgraph.KindForNodeType(nodeType)
	if !ok {
		return mapgraph.EntityRef{}, &mapgraph.UnsupportedTypeError{Value: kindToken}
	}

	id, err := strconv.ParseInt(idToken, 10, 64)
	if err != nil {
		return mapgraph.EntityRef{}, errInvalidCenter
	}

	return mapgraph.EntityRef{Kind: kind, ID: id}, nil
}
