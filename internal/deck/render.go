package deck

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/reportd/internal/codec"
	"github.com/fyrsmithlabs/reportd/internal/report"
)

// Slide geometry in EMU (914400 per inch), 16:9 canvas.
const (
	slideWidth  = 12192000
	slideHeight = 6858000

	titleX, titleY, titleW, titleH = 457200, 274638, 11277600, 831850
	bodyX, bodyY, bodyW, bodyH     = 457200, 1280160, 11277600, 5211048

	colW    = 5486400
	rightX  = 6019800
	halfH   = 2514600
	lowerY  = 3886200
	lowerH  = 2605024
	titleSz = 3200
	bodySz  = 1600
)

// Renderer turns a report into a .pptx archive using the section codecs'
// text shapes: goals pages, one execution-readiness slide per project,
// thread pages.
type Renderer struct {
	reg *codec.Registry
}

// NewRenderer creates a renderer over the given codec registry.
func NewRenderer(reg *codec.Registry) *Renderer {
	if reg == nil {
		reg = codec.NewRegistry()
	}
	return &Renderer{reg: reg}
}

// Render produces the archive bytes for the report.
func (d *Renderer) Render(r *report.WeeklyReport, rc *codec.ResolveContext) ([]byte, error) {
	slides := d.reg.RenderAll(r, rc)
	if len(slides) == 0 {
		return nil, fmt.Errorf("report has no renderable sections")
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	files := map[string]string{
		"[Content_Types].xml":                          contentTypesXML(len(slides)),
		"_rels/.rels":                                  rootRelsXML,
		"ppt/presentation.xml":                         presentationXML(len(slides)),
		"ppt/_rels/presentation.xml.rels":              presentationRelsXML(len(slides)),
		"ppt/slideMasters/slideMaster1.xml":            slideMasterXML,
		"ppt/slideMasters/_rels/slideMaster1.xml.rels": masterRelsXML,
		"ppt/slideLayouts/slideLayout1.xml":            slideLayoutXML,
		"ppt/slideLayouts/_rels/slideLayout1.xml.rels": layoutRelsXML,
	}
	for i, s := range slides {
		name := fmt.Sprintf("ppt/slides/slide%d.xml", i+1)
		files[name] = slideXML(s)
		files[fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", i+1)] = slideRelsXML
	}

	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			return nil, fmt.Errorf("create archive part %s: %w", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			return nil, fmt.Errorf("write archive part %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize archive: %w", err)
	}
	return buf.Bytes(), nil
}

// slideXML lays out one slide. Execution-readiness slides get the
// two-column layout (capacity/strength left, sprint/UED right, friction
// lists below); everything else is a title plus a single body box.
func slideXML(s codec.Slide) string {
	var shapes strings.Builder
	id := 2
	addBox := func(name string, x, y, cx, cy int, sz int, lines []string) {
		if len(lines) == 0 {
			return
		}
		shapes.WriteString(textBoxXML(id, name, x, y, cx, cy, sz, lines))
		id++
	}

	addBox("Title", titleX, titleY, titleW, titleH, titleSz, []string{s.Title})

	if strings.HasPrefix(s.Title, codec.TitleReadiness) {
		lead, left, right, lower := splitReadinessBody(s.Body)
		addBox("Subtitle", bodyX, bodyY, bodyW, 457200, bodySz, lead)
		addBox("Team", bodyX, bodyY+548640, colW, halfH, bodySz, left)
		addBox("Sprint", rightX, bodyY+548640, colW, halfH, bodySz, right)
		addBox("Friction", bodyX, lowerY+548640, bodyW, lowerH, bodySz, lower)
	} else {
		addBox("Body", bodyX, bodyY, bodyW, bodyH, bodySz, s.Body)
	}

	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"><p:cSld><p:spTree><p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/>` +
		shapes.String() +
		`</p:spTree></p:cSld></p:sld>`
}

// splitReadinessBody carves the readiness body into its layout regions,
// keeping the overall line order the extractor will reproduce.
func splitReadinessBody(body []string) (lead, left, right, lower []string) {
	sprintAt, bottleneckAt := -1, -1
	for i, line := range body {
		switch line {
		case codec.HeaderSprint:
			sprintAt = i
		case codec.HeaderBottlenecks:
			bottleneckAt = i
		}
	}
	if sprintAt < 0 || bottleneckAt < 0 || sprintAt > bottleneckAt {
		return nil, body, nil, nil
	}
	if len(body) > 0 {
		lead = body[:1]
		left = body[1:sprintAt]
	}
	right = body[sprintAt:bottleneckAt]
	lower = body[bottleneckAt:]
	return lead, left, right, lower
}

// textBoxXML renders one text box shape, one paragraph per line.
func textBoxXML(id int, name string, x, y, cx, cy, sz int, lines []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<p:sp><p:nvSpPr><p:cNvPr id="%d" name="%s"/><p:cNvSpPr txBox="1"/><p:nvPr/></p:nvSpPr>`, id, name)
	fmt.Fprintf(&b, `<p:spPr><a:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom></p:spPr>`, x, y, cx, cy)
	b.WriteString(`<p:txBody><a:bodyPr wrap="square"/><a:lstStyle/>`)
	for _, line := range lines {
		fmt.Fprintf(&b, `<a:p><a:r><a:rPr lang="en-US" sz="%d" dirty="0"/><a:t>%s</a:t></a:r></a:p>`, sz, escapeXML(line))
	}
	b.WriteString(`</p:txBody></p:sp>`)
	return b.String()
}

func escapeXML(s string) string {
	var b bytes.Buffer
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

func contentTypesXML(slideCount int) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/><Default Extension="xml" ContentType="application/xml"/><Override PartName="/ppt/presentation.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"/><Override PartName="/ppt/slideMasters/slideMaster1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideMaster+xml"/><Override PartName="/ppt/slideLayouts/slideLayout1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideLayout+xml"/>`)
	for i := 1; i <= slideCount; i++ {
		fmt.Fprintf(&b, `<Override PartName="/ppt/slides/slide%d.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slide+xml"/>`, i)
	}
	b.WriteString(`</Types>`)
	return b.String()
}

const rootRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="ppt/presentation.xml"/></Relationships>`

func presentationXML(slideCount int) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:presentation xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"><p:sldMasterIdLst><p:sldMasterId id="2147483648" r:id="rIdM"/></p:sldMasterIdLst><p:sldIdLst>`)
	for i := 1; i <= slideCount; i++ {
		fmt.Fprintf(&b, `<p:sldId id="%d" r:id="rId%d"/>`, 255+i, i)
	}
	fmt.Fprintf(&b, `</p:sldIdLst><p:sldSz cx="%d" cy="%d"/><p:notesSz cx="6858000" cy="9144000"/></p:presentation>`, slideWidth, slideHeight)
	return b.String()
}

func presentationRelsXML(slideCount int) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
	for i := 1; i <= slideCount; i++ {
		fmt.Fprintf(&b, `<Relationship Id="rId%d" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide" Target="slides/slide%d.xml"/>`, i, i)
	}
	b.WriteString(`<Relationship Id="rIdM" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideMaster" Target="slideMasters/slideMaster1.xml"/></Relationships>`)
	return b.String()
}

const slideMasterXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:sldMaster xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"><p:cSld><p:spTree><p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/></p:spTree></p:cSld><p:clrMap bg1="lt1" tx1="dk1" bg2="lt2" tx2="dk2" accent1="accent1" accent2="accent2" accent3="accent3" accent4="accent4" accent5="accent5" accent6="accent6" hlink="hlink" folHlink="folHlink"/><p:sldLayoutIdLst><p:sldLayoutId id="2147483649" r:id="rId1"/></p:sldLayoutIdLst></p:sldMaster>`

const masterRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideLayout" Target="../slideLayouts/slideLayout1.xml"/></Relationships>`

const slideLayoutXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:sldLayout xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"><p:cSld><p:spTree><p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/></p:spTree></p:cSld><p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sldLayout>`

const layoutRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideMaster" Target="../slideMasters/slideMaster1.xml"/></Relationships>`

const slideRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideLayout" Target="../slideLayouts/slideLayout1.xml"/></Relationships>`
