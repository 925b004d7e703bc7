// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package client implements the mail sync application runtime.
//
// It wires the sync services, the background sync job and the resources
// they hold (transport connections, local storage) into a single process
// lifecycle.
package client
