// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// JMAP capability identifiers used by the mail transport.
const (
	JMAPCapabilityCore = "urn:ietf:params:jmap:core"
	JMAPCapabilityMail = "urn:ietf:params:jmap:mail"
)

// JMAPSession is the session resource returned by the JMAP session endpoint.
type JMAPSession struct {
	Capabilities    map[string]json.RawMessage `json:"capabilities"`
	Accounts        map[string]JMAPAccount     `json:"accounts"`
	PrimaryAccounts map[string]string          `json:"primaryAccounts"`
	Username        string                     `json:"username"`
	APIURL          string                     `json:"apiUrl"`
	DownloadURL     string                     `json:"downloadUrl"`
	State           string                     `json:"state"`
}

// JMAPAccount describes one account listed in a JMAP session.
type JMAPAccount struct {
	Name       string `json:"name"`
	IsPersonal bool   `json:"isPersonal"`
	IsReadOnly bool   `json:"isReadOnly"`
}

// JMAPCoreCapability holds the limits advertised under JMAPCapabilityCore.
type JMAPCoreCapability struct {
	MaxSizeRequest        int64 `json:"maxSizeRequest"`
	MaxCallsInRequest     int   `json:"maxCallsInRequest"`
	MaxObjectsInGet       int   `json:"maxObjectsInGet"`
	MaxObjectsInSet       int   `json:"maxObjectsInSet"`
	MaxConcurrentRequests int   `json:"maxConcurrentRequests"`
}

// JMAPRequest is the body of a JMAP API call.
type JMAPRequest struct {
	Using       []string     `json:"using"`
	MethodCalls []Invocation `json:"methodCalls"`
}

// JMAPResponse is the body returned by a JMAP API call.
type JMAPResponse struct {
	MethodResponses []Invocation `json:"methodResponses"`
	SessionState    string       `json:"sessionState"`
}

// Invocation is a JMAP method call or response, encoded on the wire as the
// three-element array [name, arguments, callId].
type Invocation struct {
	Name   string
	Args   json.RawMessage
	CallID string
}

func (i Invocation) MarshalJSON() ([]byte, error) {
	args := i.Args
	if args == nil {
		args = json.RawMessage("{}")
	}
	return json.Marshal([]any{i.Name, args, i.CallID})
}

func (i *Invocation) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if len(raw) != 3 {
		return fmt.Errorf("invocation must have 3 elements, got %d", len(raw))
	}
	if err := json.Unmarshal(raw[0], &i.Name); err != nil {
		return fmt.Errorf("invocation name: %w", err)
	}
	if err := json.Unmarshal(raw[2], &i.CallID); err != nil {
		return fmt.Errorf("invocation call id: %w", err)
	}
	i.Args = raw[1]
	return nil
}

// EmailFilter is the subset of the Email/query FilterCondition used here.
type EmailFilter struct {
	InMailbox string `json:"inMailbox,omitempty"`
}

// EmailQueryArgs are the arguments of an Email/query call.
type EmailQueryArgs struct {
	AccountID      string       `json:"accountId"`
	Filter         *EmailFilter `json:"filter,omitempty"`
	Position       int          `json:"position"`
	Limit          int          `json:"limit,omitempty"`
	CalculateTotal bool         `json:"calculateTotal"`
}

// EmailQueryResult is the response of an Email/query call.
type EmailQueryResult struct {
	AccountID  string   `json:"accountId"`
	QueryState string   `json:"queryState"`
	Position   int      `json:"position"`
	IDs        []string `json:"ids"`
	Total      *int     `json:"total,omitempty"`
}

// EmailGetArgs are the arguments of an Email/get call.
type EmailGetArgs struct {
	AccountID  string   `json:"accountId"`
	IDs        []string `json:"ids"`
	Properties []string `json:"properties,omitempty"`
}

// EmailGetResult is the response of an Email/get call.
type EmailGetResult struct {
	AccountID string      `json:"accountId"`
	State     string      `json:"state"`
	List      []JMAPEmail `json:"list"`
	NotFound  []string    `json:"notFound"`
}

// JMAPEmail is the subset of Email properties requested during sync.
type JMAPEmail struct {
	ID         string     `json:"id"`
	BlobID     string     `json:"blobId"`
	Size       int64      `json:"size"`
	ReceivedAt *time.Time `json:"receivedAt,omitempty"`
}

// Metadata converts the email to the transport-neutral metadata record.
func (e JMAPEmail) Metadata(folderID string) MessageMetadata {
	return MessageMetadata{FolderID: folderID, ServerID: e.ID, BlobID: e.BlobID, Size: e.Size, ReceivedAt: e.ReceivedAt}
}

// MethodError is the arguments object of an "error" method response.
type MethodError struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}
