package version

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tie/modlauncher/modlauncher"
)

func decode(t *testing.T, s string) Descriptor {
	t.Helper()
	var d Descriptor
	require.NoError(t, json.Unmarshal([]byte(s), &d))
	return d
}

func TestMergeChildWins(t *testing.T) {
	child := decode(t, `{"id": "C", "inheritsFrom": "P", "a": 1}`)
	parent := decode(t, `{"id": "P", "a": 2, "b": 3}`)

	got := Merge(child, parent)
	assert.Equal(t, "C", got.ID)
	assert.Empty(t, got.InheritsFrom)
	assert.Equal(t, map[string]interface{}{
		"a": json.Number("1"),
		"b": json.Number("3"),
	}, got.Fields)
}

func TestMergeConcatenatesLists(t *testing.T) {
	child := decode(t, `{
		"id": "fabric-loader-1.20.1",
		"inheritsFrom": "1.20.1",
		"mainClass": "net.fabricmc.loader.impl.launch.knot.KnotClient",
		"libraries": [{"name": "net.fabricmc:fabric-loader:0.14.21"}],
		"arguments": {"jvm": ["-DFabricMcEmu=net.minecraft.client.main.Main"]}
	}`)
	parent := decode(t, `{
		"id": "1.20.1",
		"mainClass": "net.minecraft.client.main.Main",
		"assets": "5",
		"libraries": [{"name": "com.mojang:logging:1.1.1"}],
		"arguments": {"game": ["--username"], "jvm": ["-Xss1M"]}
	}`)

	got := Merge(child, parent)
	want := decode(t, `{
		"id": "fabric-loader-1.20.1",
		"mainClass": "net.fabricmc.loader.impl.launch.knot.KnotClient",
		"assets": "5",
		"libraries": [{"name": "net.fabricmc:fabric-loader:0.14.21"}, {"name": "com.mojang:logging:1.1.1"}],
		"arguments": {"game": ["--username"], "jvm": ["-DFabricMcEmu=net.minecraft.client.main.Main", "-Xss1M"]}
	}`)
	assert.Equal(t, want, got)
}

func TestMergeDoesNotModifyInputs(t *testing.T) {
	child := decode(t, `{"id": "C", "inheritsFrom": "P", "list": [1], "obj": {"x": [1]}}`)
	parent := decode(t, `{"id": "P", "list": [2], "obj": {"x": [2], "y": 1}}`)
	childJSON, _ := json.Marshal(child)
	parentJSON, _ := json.Marshal(parent)

	got := Merge(child, parent)
	got.Fields["obj"].(map[string]interface{})["x"] = "changed"

	afterChild, _ := json.Marshal(child)
	afterParent, _ := json.Marshal(parent)
	assert.JSONEq(t, string(childJSON), string(afterChild))
	assert.JSONEq(t, string(parentJSON), string(afterParent))
}

func TestDescriptorJSON(t *testing.T) {
	d := decode(t, `{"id": "x", "inheritsFrom": "y", "type": "release", "n": 12345678901234567890}`)
	assert.Equal(t, "x", d.ID)
	assert.Equal(t, "y", d.InheritsFrom)
	v, ok := d.Field("type")
	require.True(t, ok)
	assert.Equal(t, "release", v)
	_, ok = d.Field("id")
	assert.False(t, ok)

	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id": "x", "inheritsFrom": "y", "type": "release", "n": 12345678901234567890}`, string(data))

	for _, bad := range []string{`[]`, `null`, `{"id": 5}`, `{"type": "release"}`, `{"id": "x", "inheritsFrom": {}}`} {
		var d Descriptor
		err := json.Unmarshal([]byte(bad), &d)
		assert.ErrorIs(t, err, modlauncher.ErrInvalidDescriptor, bad)
	}
}

func TestManifestURL(t *testing.T) {
	build := modlauncher.Build{MinecraftVersion: "1.20.1", FabricLoaderVersion: "0.14.21"}

	fabric := modlauncher.Loader{
		Subsystem:        modlauncher.SubsystemFabric,
		LauncherManifest: "https://meta.fabricmc.net/v2/versions/loader/{MINECRAFT_VERSION}/{FABRIC_LOADER_VERSION}/profile/json",
	}
	assert.Equal(t, "https://meta.fabricmc.net/v2/versions/loader/1.20.1/0.14.21/profile/json", ManifestURL(fabric, build))

	forge := modlauncher.Loader{
		Subsystem:        modlauncher.SubsystemForge,
		LauncherManifest: "https://example.com/{MINECRAFT_VERSION}/forge.json",
	}
	assert.Equal(t, forge.LauncherManifest, ManifestURL(forge, build))
}

type fakeFetcher struct {
	docs  map[string]string
	calls []string
}

func (f *fakeFetcher) FetchDescriptor(ctx context.Context, rawurl string) (Descriptor, error) {
	f.calls = append(f.calls, rawurl)
	doc, ok := f.docs[rawurl]
	if !ok {
		return Descriptor{}, modlauncher.Transport(rawurl, fmt.Errorf("not found"))
	}
	var d Descriptor
	err := json.Unmarshal([]byte(doc), &d)
	return d, err
}

func catalog(ids ...string) *Catalog {
	c := &Catalog{}
	for _, id := range ids {
		c.Versions = append(c.Versions, CatalogEntry{ID: id, Type: "release", URL: "https://meta/" + id + ".json"})
	}
	return c
}

func TestCompose(t *testing.T) {
	f := &fakeFetcher{docs: map[string]string{
		"https://loader/root.json": `{"id": "C", "inheritsFrom": "P", "a": 1, "libraries": ["c"]}`,
		"https://meta/P.json":      `{"id": "P", "a": 2, "b": 3, "libraries": ["p"]}`,
	}}
	c := &Composer{Fetcher: f}
	d, err := c.Compose(context.Background(), catalog("X", "P"), "https://loader/root.json")
	require.NoError(t, err)
	assert.Equal(t, "C", d.ID)
	assert.Empty(t, d.InheritsFrom)
	assert.Equal(t, json.Number("1"), d.Fields["a"])
	assert.Equal(t, json.Number("3"), d.Fields["b"])
	assert.Equal(t, []interface{}{"c", "p"}, d.Fields["libraries"])
	assert.Equal(t, []string{"https://loader/root.json", "https://meta/P.json"}, f.calls)
}

func TestComposeWithoutParent(t *testing.T) {
	f := &fakeFetcher{docs: map[string]string{"https://loader/root.json": `{"id": "C", "a": 1}`}}
	d, err := (&Composer{Fetcher: f}).Compose(context.Background(), nil, "https://loader/root.json")
	require.NoError(t, err)
	assert.Equal(t, Descriptor{ID: "C", Fields: map[string]interface{}{"a": json.Number("1")}}, d)
}

func TestComposeUnknownParent(t *testing.T) {
	f := &fakeFetcher{docs: map[string]string{"https://loader/root.json": `{"id": "C", "inheritsFrom": "P"}`}}
	_, err := (&Composer{Fetcher: f}).Compose(context.Background(), catalog("X"), "https://loader/root.json")
	assert.ErrorIs(t, err, modlauncher.ErrInvalidDescriptor)
	assert.Contains(t, err.Error(), "unable to find inherited version profile P")
}

func TestComposeChain(t *testing.T) {
	f := &fakeFetcher{docs: map[string]string{
		"https://loader/root.json": `{"id": "C", "inheritsFrom": "B", "libraries": ["c"]}`,
		"https://meta/B.json":      `{"id": "B", "inheritsFrom": "A", "libraries": ["b"], "b": true}`,
		"https://meta/A.json":      `{"id": "A", "libraries": ["a"], "a": true}`,
	}}
	d, err := (&Composer{Fetcher: f}).Compose(context.Background(), catalog("A", "B"), "https://loader/root.json")
	require.NoError(t, err)
	assert.Empty(t, d.InheritsFrom)
	assert.Equal(t, []interface{}{"c", "b", "a"}, d.Fields["libraries"])
	assert.Equal(t, true, d.Fields["a"])
	assert.Equal(t, true, d.Fields["b"])
}

func TestComposeRejectsCyclesAndDepth(t *testing.T) {
	f := &fakeFetcher{docs: map[string]string{
		"https://loader/root.json": `{"id": "A", "inheritsFrom": "B"}`,
		"https://meta/B.json":      `{"id": "B", "inheritsFrom": "A"}`,
	}}
	_, err := (&Composer{Fetcher: f}).Compose(context.Background(), catalog("A", "B"), "https://loader/root.json")
	assert.ErrorIs(t, err, modlauncher.ErrInvalidDescriptor)
	assert.Contains(t, err.Error(), "cycle")

	f = &fakeFetcher{docs: map[string]string{
		"https://loader/root.json": `{"id": "C", "inheritsFrom": "B"}`,
		"https://meta/B.json":      `{"id": "B", "inheritsFrom": "A"}`,
		"https://meta/A.json":      `{"id": "A"}`,
	}}
	_, err = (&Composer{Fetcher: f, MaxDepth: 1}).Compose(context.Background(), catalog("A", "B"), "https://loader/root.json")
	assert.ErrorIs(t, err, modlauncher.ErrInvalidDescriptor)
}

func TestComposeTransportError(t *testing.T) {
	f := &fakeFetcher{docs: map[string]string{"https://loader/root.json": `{"id": "C", "inheritsFrom": "P"}`}}
	_, err := (&Composer{Fetcher: f}).Compose(context.Background(), catalog("P"), "https://loader/root.json")
	assert.ErrorIs(t, err, modlauncher.ErrTransport)
}
