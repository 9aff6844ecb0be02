/*
SPDX-FileCopyrightText: Red Hat

SPDX-License-Identifier: Apache-2.0
*/

package db

// Model is implemented by every persisted record type.  The generic repository helpers use it to
// resolve the table, the primary key column, and the conflict constraint used on upsert.
type Model interface {
	PrimaryKey() string
	TableName() string
	OnConflict() string
}
