package memhost

import (
	"context"
	"testing"

	"github.com/dshills/previewsync/internal/event"
	"github.com/dshills/previewsync/internal/host"
)

const sample = `# Title

Intro with **bold** and [a link](https://x.dev).

- plain item
- [ ] todo one
- [x] done *two*
  - nested item

> quoted text

` + "```" + `
code is not rendered
` + "```" + `
`

func TestRender(t *testing.T) {
	doc := New(nil)
	form := doc.AddForm(sample)
	if form.Body().HasContent() {
		t.Fatal("body rendered before the preview was selected")
	}
	form.SelectPreview()

	body := form.Body()
	blocks := body.Blocks()
	want := []struct {
		kind Kind
		text string
	}{
		{KindHeading, "Title"},
		{KindParagraph, "Intro with bold and a link."},
		{KindListItem, "plain item"},
		{KindListItem, "nested item"},
		{KindParagraph, "quoted text"},
	}
	if len(blocks) != len(want) {
		t.Fatalf("got %d blocks, want %d", len(blocks), len(want))
	}
	for i, w := range want {
		if blocks[i].Kind() != w.kind || blocks[i].Text() != w.text {
			t.Errorf("block %d = %s %q, want %s %q", i, blocks[i].Kind(), blocks[i].Text(), w.kind, w.text)
		}
	}
	if blocks[0].Level() != 1 {
		t.Errorf("heading level = %d", blocks[0].Level())
	}

	tasks := body.Tasks()
	if len(tasks) != 2 {
		t.Fatalf("got %d task items, want 2", len(tasks))
	}
	if tasks[0].Text() != "todo one" || tasks[0].Checkbox().Checked() {
		t.Errorf("task 0 = %q checked=%t", tasks[0].Text(), tasks[0].Checkbox().Checked())
	}
	if tasks[1].Text() != "done two" || !tasks[1].Checkbox().Checked() {
		t.Errorf("task 1 = %q checked=%t", tasks[1].Text(), tasks[1].Checkbox().Checked())
	}
	if n := len(body.Checkboxes()); n != 2 {
		t.Errorf("Checkboxes() = %d, want 2", n)
	}
}

func TestSelectPreviewEmitsMutations(t *testing.T) {
	doc := New(nil)
	var batches [][]host.Mutation
	cancel := doc.Observe(func(b []host.Mutation) { batches = append(batches, b) })

	form := doc.AddForm("hello")
	form.SelectPreview()
	form.SelectPreview()
	form.SelectWrite()

	if len(batches) != 3 {
		t.Fatalf("got %d batches, want 3", len(batches))
	}
	if got := batches[1]; len(got) != 2 || got[0].Attribute != "aria-selected" || got[1].Kind != host.MutationChildList {
		t.Errorf("SelectPreview batch = %+v", got)
	}
	if form.InPreview() || form.Tab().Selected() {
		t.Error("form still in preview after SelectWrite")
	}

	cancel()
	form.SelectPreview()
	if len(batches) != 3 {
		t.Error("observer called after cancel")
	}
}

func TestRerenderDetachesOldElements(t *testing.T) {
	doc := New(nil)
	form := doc.AddForm("first\n\nsecond")
	form.SelectPreview()
	old := form.Body().Blocks()[0]

	form.SourceField().SetValue("first changed\n\nsecond")
	form.Rerender()

	if old.Attached() {
		t.Error("old element still attached after rerender")
	}
	if got := form.Body().Blocks()[0]; got.Text() != "first changed" || got.Node() == old.Node() {
		t.Errorf("rerendered block = %q", got.Text())
	}
}

func TestEditable(t *testing.T) {
	doc := New(nil)
	form := doc.AddForm("para")
	form.SelectPreview()
	p := form.Body().Blocks()[0]

	if p.Type("x") {
		t.Error("Type succeeded on a non-editable element")
	}
	if len(form.Editables()) != 0 {
		t.Error("Editables() lists a non-editable element")
	}

	inputs, blurs := 0, 0
	p.SetEditable(true)
	p.OnInput(func() { inputs++ })
	p.OnBlur(func() { blurs++ })
	p.Type("para edited")
	p.Blur()
	if inputs != 1 || blurs != 1 || p.Text() != "para edited" {
		t.Errorf("inputs=%d blurs=%d text=%q", inputs, blurs, p.Text())
	}
	if eds := form.Editables(); len(eds) != 1 || eds[0].Node() != p.Node() {
		t.Errorf("Editables() = %v", eds)
	}
}

func TestTaskItemTextSpan(t *testing.T) {
	doc := New(nil)
	form := doc.AddForm("- [ ] ship it\n- [ ]")
	form.SelectPreview()
	tasks := form.Body().Tasks()

	mutations := 0
	doc.Observe(func(b []host.Mutation) { mutations++ })

	span, ok := tasks[0].TextSpan()
	if !ok || span.Text() != "ship it" {
		t.Fatalf("TextSpan() = %v, %t", span, ok)
	}
	again, _ := tasks[0].TextSpan()
	if again.Node() != span.Node() {
		t.Error("TextSpan() created a second span")
	}
	if mutations != 1 {
		t.Errorf("mutations = %d, want 1", mutations)
	}
	if tasks[0].Span().Kind() != KindTaskText {
		t.Errorf("span kind = %s", tasks[0].Span().Kind())
	}

	if len(tasks) > 1 {
		if _, ok := tasks[1].TextSpan(); ok {
			t.Error("TextSpan() wrapped an empty task")
		}
	}
}

func TestCheckboxClick(t *testing.T) {
	doc := New(nil)
	form := doc.AddForm("- [ ] a")
	form.SelectPreview()
	cb := form.Body().Tasks()[0].checkbox

	if cb.Click() {
		t.Error("disabled checkbox clicked")
	}
	var got []bool
	cb.Enable()
	cb.OnChange(func(checked bool) { got = append(got, checked) })
	cb.Click()
	cb.Click()
	if len(got) != 2 || !got[0] || got[1] {
		t.Errorf("changes = %v, want [true false]", got)
	}
}

func TestSubmitListenerOrder(t *testing.T) {
	doc := New(nil)
	form := doc.AddForm("x")
	other := doc.AddForm("y")

	var order []string
	form.AddSubmitListener(func() { order = append(order, "host") }, false)
	form.AddSubmitListener(func() { order = append(order, "guard") }, true)
	other.AddSubmitListener(func() { order = append(order, "other") }, true)

	if err := form.Submit(); err != nil {
		t.Fatal(err)
	}
	if len(order) != 2 || order[0] != "guard" || order[1] != "host" {
		t.Errorf("order = %v, want [guard host]", order)
	}

	order = nil
	form.ClickSubmit()
	if len(order) != 4 || order[0] != "guard" || order[2] != "guard" {
		t.Errorf("click order = %v", order)
	}
}

func TestListenerCancel(t *testing.T) {
	doc := New(nil)
	form := doc.AddForm("para\n\n- [ ] a")
	form.SelectPreview()
	p := form.Body().Blocks()[0]
	cb := form.Body().Tasks()[0].checkbox

	inputs, changes, submits := 0, 0, 0
	p.SetEditable(true)
	cancelInput := p.OnInput(func() { inputs++ })
	cancelBlur := p.OnBlur(func() {})
	cb.Enable()
	cancelChange := cb.OnChange(func(bool) { changes++ })
	cancelSubmit := form.AddSubmitListener(func() { submits++ }, true)

	p.Type("one")
	cb.Click()
	form.Submit()

	cancelInput()
	cancelBlur()
	cancelChange()
	cancelSubmit()
	cancelSubmit()

	p.Type("two")
	cb.Click()
	form.Submit()

	if inputs != 1 || changes != 1 || submits != 1 {
		t.Errorf("inputs=%d changes=%d submits=%d, want 1 each", inputs, changes, submits)
	}
	if in, bl := p.Listeners(); in != 0 || bl != 0 {
		t.Errorf("Listeners() = %d, %d after cancel", in, bl)
	}
	if cb.Listeners() != 0 || form.SubmitListeners() != 0 {
		t.Errorf("checkbox listeners = %d, submit subscriptions = %d", cb.Listeners(), form.SubmitListeners())
	}
}

func TestFieldDispatch(t *testing.T) {
	bus := event.NewBus()
	doc := New(bus)
	form := doc.AddForm("")

	var topics []event.Topic
	bus.SubscribeFunc("buffer.*", func(_ context.Context, ev any) error {
		e := ev.(event.Event[FieldEvent])
		if e.Payload.FormID != form.ID() {
			t.Errorf("FormID = %q", e.Payload.FormID)
		}
		topics = append(topics, e.Type)
		return nil
	})

	form.SourceField().Type("abc")
	form.Field().Dispatch("change")
	if len(topics) != 2 || topics[0] != event.TopicBufferInput || topics[1] != event.TopicBufferChange {
		t.Errorf("topics = %v", topics)
	}
}

func TestRemoveForm(t *testing.T) {
	doc := New(nil)
	form := doc.AddForm("text")
	form.SelectPreview()
	p := form.Body().Blocks()[0]
	called := false
	form.AddSubmitListener(func() { called = true }, true)

	if !doc.RemoveForm(form) {
		t.Fatal("RemoveForm() = false")
	}
	if p.Attached() || form.Attached() {
		t.Error("elements still attached")
	}
	if len(doc.Forms()) != 0 || len(doc.PreviewBodies()) != 0 {
		t.Error("form still listed")
	}
	form.Submit()
	if called {
		t.Error("submit listener survived RemoveForm")
	}
}
