package annopack_test

import (
	"fmt"
	"log"
	"strings"

	"github.com/hupe1980/annopack"
	"github.com/hupe1980/annopack/handle"
	"github.com/hupe1980/annopack/schema"
)

type Token struct {
	Text string
}

// Example shows the no-entry value of an unset key and a packed layout.
func Example() {
	m, err := annopack.New[Token](schema.Schema{
		{Key: "score", Type: schema.TypeInteger, NoEntry: -1},
		{Key: "pos", Type: schema.TypeText, Width: 1},
		{Key: "stop", Type: schema.TypeBoolean},
	}, annopack.WithBitPacking(true))
	if err != nil {
		log.Fatal(err)
	}
	defer m.Close()

	tok := &Token{Text: "the"}
	if err := m.Register(tok); err != nil {
		log.Fatal(err)
	}

	score, _ := m.GetInt(tok, "score")
	fmt.Println("score:", score)

	_ = m.SetInt(tok, "score", 42)
	_ = m.SetText(tok, "pos", "DET")
	_ = m.SetBool(tok, "stop", true)

	score, _ = m.GetInt(tok, "score")
	pos, _ := m.GetText(tok, "pos")
	stop, _ := m.GetBool(tok, "stop")
	fmt.Println(score, pos, stop)
	fmt.Println("slot bytes:", m.Stats().SlotSize)
	// Output:
	// score: -1
	// 42 DET true
	// slot bytes: 6
}

// Example_dynamicSchema adds and removes keys on a live manager.
func Example_dynamicSchema() {
	m, err := annopack.New[Token](schema.Schema{
		{Key: "lemma", Type: schema.TypeText},
	}, annopack.WithDynamicSchema(true), annopack.WithAutoRegister(true))
	if err != nil {
		log.Fatal(err)
	}
	defer m.Close()

	tok := &Token{Text: "ran"}
	_ = m.SetText(tok, "lemma", "run")

	if _, err := m.RegisterHandles(schema.Declaration{Key: "freq", Type: schema.TypeLong, NoEntry: 1}); err != nil {
		log.Fatal(err)
	}
	freq, _ := m.GetLong(tok, "freq")
	fmt.Println("freq:", freq)

	_ = m.UnregisterHandles("lemma")
	fmt.Println(strings.Join(m.Schema().Keys(), ","))
	// Output:
	// freq: 1
	// freq
}

// Example_collectHandles lists the keys an owner has set.
func Example_collectHandles() {
	m, err := annopack.New[Token](schema.Schema{
		{Key: "ner", Type: schema.TypeText, NoEntry: "O"},
		{Key: "head", Type: schema.TypeInteger},
		{Key: "root", Type: schema.TypeBoolean},
	}, annopack.WithAutoRegister(true))
	if err != nil {
		log.Fatal(err)
	}
	defer m.Close()

	tok := &Token{Text: "Paris"}
	_ = m.SetText(tok, "ner", "LOC")
	_ = m.SetBool(tok, "root", true)

	m.CollectHandles(tok, func(h *handle.Handle) bool {
		v, _ := m.Get(tok, h.Key())
		fmt.Printf("%s=%v\n", h.Key(), v)
		return true
	})

	data, _ := m.Dump(tok)
	fmt.Println(string(data))
	// Output:
	// ner=LOC
	// root=true
	// {"ner":"LOC","root":true}
}
