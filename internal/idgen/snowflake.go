// Package idgen выдаёт идентификаторы на основе времени (snowflake) для хранилищ,
// которые не назначают ID сами.
package idgen

import (
	"fmt"

	"github.com/bwmarrin/snowflake"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// Generator: потокобезопасный генератор snowflake-идентификаторов.
type Generator struct {
	node *snowflake.Node
}

// New создаёт генератор для узла nodeID (0..1023).
func New(nodeID int64) (*Generator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("create snowflake node %d: %w", nodeID, err)
	}
	return &Generator{node: node}, nil
}

// NewID возвращает новый идентификатор в десятичной записи.
func (g *Generator) NewID() string {
	return g.node.Generate().String()
}

// Parse проверяет формат идентификатора и возвращает его числовое значение.
// Подходит и для сидовых ID вида "1".."8".
func Parse(id string) (int64, error) {
	parsed, err := snowflake.ParseString(id)
	if err != nil || parsed.Int64() <= 0 {
		return 0, domain.ErrInvalidID
	}
	return parsed.Int64(), nil
}

var _ domain.IDGenerator = (*Generator)(nil)
