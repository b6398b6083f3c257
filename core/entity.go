package core

// Entity is a unique identifier for an entity, zero is the null entity
type Entity uint64

// IsNull reports whether e is the null entity
func (e Entity) IsNull() bool {
	return e == 0
}
