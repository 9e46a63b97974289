package props

import (
	"errors"
	"strings"
	"testing"

	"github.com/alecthomas/assert"
)

const setsXML = `<?xml version="1.0" encoding="UTF-8"?>
<config>
  <!-- shared by everything -->
  <properties name="base">
    <entry key="db.host">localhost</entry>
    <entry key="db.port">5432</entry>
    <entry key="greeting">caf&#233; &amp; bar</entry>
  </properties>
  <properties name="prod" extends="base">
    <comment>
      production database
    </comment>
    <entry key="db.host">10.0.0.5</entry>
    <entry key="db.pool"><![CDATA[a<b]]></entry>
  </properties>
  <properties name="prod-eu" extends="prod">
    <entry key="region">eu</entry>
    <entry key="empty"></entry>
  </properties>
</config>
`

func mustLoadSets(t *testing.T, s string) *Sets {
	sets, err := LoadSets(strings.NewReader(s))
	assert.NoError(t, err)
	return sets
}

func TestLoadSets(t *testing.T) {
	sets := mustLoadSets(t, setsXML)
	assert.Equal(t, []string{"base", "prod", "prod-eu"}, sets.Names())

	parent, ok := sets.Parent("prod-eu")
	assert.True(t, ok)
	assert.Equal(t, "prod", parent)
	_, ok = sets.Parent("base")
	assert.False(t, ok)

	base := sets.Store("base")
	assert.Equal(t, []string{"db.host", "db.port", "greeting"}, base.Keys())
	v, _ := base.Get("greeting")
	assert.Equal(t, "café & bar", v)

	prod := sets.Store("prod")
	assert.Equal(t, Comment{Text: "# production database"}, prod.ElementAt(0))
	v, _ = prod.Get("db.pool")
	assert.Equal(t, "a<b", v)

	v, ok = sets.Store("prod-eu").Get("empty")
	assert.True(t, ok)
	assert.Equal(t, "", v)

	assert.Nil(t, sets.Store("missing"))
}

func TestSetsChain(t *testing.T) {
	sets := mustLoadSets(t, setsXML)
	c, err := sets.Chain("prod-eu")
	assert.NoError(t, err)

	v, from, ok := c.Resolve("db.host")
	assert.True(t, ok)
	assert.Equal(t, "10.0.0.5", v)
	assert.Equal(t, "prod", from)

	v, from, ok = c.Resolve("db.port")
	assert.True(t, ok)
	assert.Equal(t, "5432", v)
	assert.Equal(t, "base", from)

	v, _ = Required(c, "region")
	assert.Equal(t, "eu", v)

	_, err = sets.Chain("nope")
	assert.True(t, errors.Is(err, ErrNoSuchSet))
}

func TestSetsFlatten(t *testing.T) {
	sets := mustLoadSets(t, setsXML)
	s, err := sets.Flatten("prod-eu")
	assert.NoError(t, err)
	assert.Equal(t, []string{"db.host", "db.port", "greeting", "db.pool", "region", "empty"}, s.Keys())
	v, _ := s.Get("db.host")
	assert.Equal(t, "10.0.0.5", v)

	// the flattened store is a copy
	s.Put("db.port", "1")
	v, _ = sets.Store("base").Get("db.port")
	assert.Equal(t, "5432", v)

	// later sets win
	s, err = sets.Flatten("prod", "base")
	assert.NoError(t, err)
	v, _ = s.Get("db.host")
	assert.Equal(t, "localhost", v)

	_, err = sets.Flatten("base", "nope")
	assert.True(t, errors.Is(err, ErrNoSuchSet))
}

func TestSetsBadParents(t *testing.T) {
	sets := mustLoadSets(t, `<config>
<properties name="a" extends="b"><entry key="k">1</entry></properties>
<properties name="b" extends="a"/>
<properties name="self" extends="self"/>
<properties name="orphan" extends="missing"/>
</config>`)

	_, err := sets.Chain("a")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "extends itself")
	_, err = sets.Chain("self")
	assert.Error(t, err)

	_, err = sets.Chain("orphan")
	assert.True(t, errors.Is(err, ErrNoSuchSet))
	assert.Contains(t, err.Error(), "'missing'")
}

func TestSetsLoadReplaces(t *testing.T) {
	sets := mustLoadSets(t, setsXML)
	err := sets.Load(strings.NewReader(`<config>
<properties name="base"><entry key="db.host">db.internal</entry></properties>
<properties name="test" extends="base"/>
</config>`))
	assert.NoError(t, err)
	assert.Equal(t, []string{"base", "prod", "prod-eu", "test"}, sets.Names())

	s, err := sets.Flatten("prod")
	assert.NoError(t, err)
	v, _ := s.Get("db.host")
	assert.Equal(t, "10.0.0.5", v)
	_, ok := s.Get("db.port")
	assert.False(t, ok)

	// a failed load doesn't change anything
	err = sets.Load(strings.NewReader(`<config><properties name="x"></config>`))
	assert.Error(t, err)
	assert.Equal(t, 4, len(sets.Names()))
}

func TestLoadSetsErrors(t *testing.T) {
	tests := []struct {
		xml string
		msg string
	}{
		{`<config><properties><entry key="a">1</entry></properties></config>`, "'name'"},
		{`<config><properties name="a"><entry>1</entry></properties></config>`, "'key'"},
		{`<config><entry key="a">1</entry></config>`, "outside of <properties>"},
		{`<config><properties name="a"><properties name="b"/></properties></config>`, "nested"},
		{`<config><properties name="a"><entry key="k"><b/></entry></properties></config>`, "inside <entry>"},
		{`<config><item/></config>`, "unexpected tag <item>"},
		{`<config><properties name="a">`, "props: xml"},
	}
	for _, test := range tests {
		_, err := LoadSets(strings.NewReader(test.xml))
		assert.Error(t, err, "%s", test.xml)
		assert.Contains(t, err.Error(), test.msg, "%s", test.xml)
	}
}

func TestLoadSetsLatin1(t *testing.T) {
	d := []byte(`<?xml version="1.0" encoding="ISO-8859-1"?>
<config><properties name="a"><entry key="k">caf`)
	d = append(d, 0xe9)
	d = append(d, []byte(`</entry></properties></config>`)...)
	sets := mustLoadSets(t, string(d))
	v, _ := sets.Store("a").Get("k")
	assert.Equal(t, "café", v)
}
