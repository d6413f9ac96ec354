package controllers

import (
	"github.com/rzbill/sharedq/internal/entrystore"
)

// nsCreateReq represents a request to create a new namespace.
type nsCreateReq struct {
	Namespace string `json:"namespace"`
}

// addReq adds an entry. Number 0 leaves the entry unassigned.
type addReq struct {
	UID       string `json:"uid"`
	Timestamp string `json:"timestamp"`
	Number    int    `json:"number"`
}

// assignReq observes a uid and returns its permanent number.
type assignReq struct {
	UID string `json:"uid"`
}

type entriesResp struct {
	Namespace string             `json:"namespace"`
	Counter   int                `json:"counter"`
	Total     int                `json:"total"`
	Entries   []entrystore.Entry `json:"entries"`
}

type assignResp struct {
	UID    string `json:"uid"`
	Number int    `json:"number"`
}

type peerEventResp struct {
	Kind    string `json:"kind"`
	UID     string `json:"uid"`
	Applied bool   `json:"applied"`
}
