package stringify_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mirrorlake/oprop/object"
	"github.com/mirrorlake/oprop/stringify"
)

type Core struct {
	ID uint32 `oprop:"m_id" flags:"TRANSMIT"`
}

func (*Core) ObjectName() string { return "class Core" }

type Unit struct {
	Core
	Name  string               `oprop:"m_name" flags:"TRANSMIT"`
	Items object.Vector[int32] `oprop:"m_items" flags:"TRANSMIT"`
	Pet   object.Ptr[Core]     `oprop:"m_pet" flags:"TRANSMIT"`
}

func (*Unit) ObjectName() string { return "class Unit" }

func TestObject(t *testing.T) {
	unit := &Unit{Name: "scout"}
	unit.ID = 7
	unit.Items.Push(1)
	unit.Items.Push(2)

	rendered := stringify.Object(unit)

	assert.Contains(t, rendered, "class Unit {")
	assert.Contains(t, rendered, "base: class Core {")
	assert.Contains(t, rendered, "m_id: 7")
	assert.Contains(t, rendered, `m_name: "scout"`)
	assert.Contains(t, rendered, "m_items: [1, 2]")
	assert.Contains(t, rendered, "m_pet: nullptr")
}

func TestObjectWithPointee(t *testing.T) {
	unit := &Unit{Name: "scout"}
	pet := &Core{ID: 9}
	assert.NoError(t, unit.Pet.SetPointerClass(pet))

	rendered := stringify.Object(unit)
	assert.Contains(t, rendered, "m_pet: class Core {")
	assert.Contains(t, rendered, "m_id: 9")
}
