package models

import "github.com/google/uuid"

// ensureID 在创建前为空主键生成 UUID
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
