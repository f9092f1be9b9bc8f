package hashutil_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mirrorlake/oprop/hashutil"
)

func TestDJB2(t *testing.T) {
	assert.Equal(t, uint32(5381), hashutil.DJB2(""))
	assert.Equal(t, uint32(177670), hashutil.DJB2("a"))

	// The most significant bit is always stripped.
	for _, s := range []string{"m_objectName", "m_templateID", "class GameObjectTemplate", "some very long property name to churn the state"} {
		assert.Less(t, hashutil.DJB2(s), uint32(1)<<31)
	}
}

func TestStringIDSimple(t *testing.T) {
	// Characters hash as their offset from the space character.
	assert.Equal(t, uint32(0), hashutil.StringID(""))
	assert.Equal(t, uint32(0), hashutil.StringID(" "))
	assert.Equal(t, uint32(1), hashutil.StringID("!"))
}

func TestStringIDBuilderSegmentation(t *testing.T) {
	const name = "class PropertyClass"

	whole := hashutil.StringID(name)

	split := hashutil.StringIDBuilder{}.
		FeedString("class ").
		FeedString("Property").
		FeedString("Class").
		Finish()
	assert.Equal(t, whole, split)

	byteWise := hashutil.StringIDBuilder{}
	for i := 0; i < len(name); i++ {
		byteWise = byteWise.Feed([]byte{name[i]})
	}
	assert.Equal(t, whole, byteWise.Finish())

	assert.Equal(t, whole, hashutil.ByteStringID([]byte(name)))
}

func TestStringIDDistinguishesNames(t *testing.T) {
	assert.NotEqual(t, hashutil.StringID("class Unit"), hashutil.StringID("class Core"))
}
