package render

import "html/template"

type pageData struct {
	Title      string
	VolumeName string
	SliceName  string
	FrameIndex int
	FrameCount int
	Position   float64
	PanelW     int
	PanelH     int
	FrameW     int
	FrameH     int
	LeftSrc    string
	RightSrc   string
}

var page = template.Must(template.New("artifact").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
  body { font-family: Arial; background: #1a1a1a; color: #fff; margin: 0; padding: 20px; }
  .header { background: #333; padding: 12px 20px; border-radius: 8px; margin-bottom: 20px; }
  .header h1 { margin: 0; font-size: 18px; }
  .header p { margin: 6px 0 0 0; color: #aaa; font-size: 13px; }
  .panels { display: flex; gap: 20px; }
  .panel { background: #333; padding: 12px; border-radius: 8px; }
  .panel h2 { margin: 0 0 8px 0; font-size: 15px; font-weight: normal; }
  canvas { background: #000; display: block; cursor: grab; }
</style>
</head>
<body>
<div class="header">
  <h1>{{.VolumeName}} | {{.SliceName}}</h1>
  <p>frame {{.FrameIndex}} of {{.FrameCount}}, declared position {{.Position}} &mdash; drag to pan, scroll to zoom; panels stay linked</p>
</div>
<div class="panels">
  <div class="panel">
    <h2>CT slice {{.FrameIndex}}</h2>
    <canvas id="volume-panel" width="{{.PanelW}}" height="{{.PanelH}}"></canvas>
  </div>
  <div class="panel">
    <h2>Histology {{.SliceName}}</h2>
    <canvas id="slice-panel" width="{{.PanelW}}" height="{{.PanelH}}"></canvas>
  </div>
</div>
<script>
const frameW = {{.FrameW}};
const frameH = {{.FrameH}};
const panelW = {{.PanelW}};
const panelH = {{.PanelH}};

// One shared viewport: every interaction updates it and both panels redraw,
// which is what keeps the CT frame and the histology section in register.
const view = {scale: Math.min(panelW / frameW, panelH / frameH), ox: 0, oy: 0};
const panels = [];

function makePanel(id, src) {
  const canvas = document.getElementById(id);
  const img = new Image();
  const panel = {canvas: canvas, ctx: canvas.getContext('2d'), img: img, ready: false};
  img.onload = function () { panel.ready = true; redraw(); };
  img.src = src;
  attach(canvas);
  return panel;
}

function redraw() {
  for (const p of panels) {
    const ctx = p.ctx;
    ctx.setTransform(1, 0, 0, 1, 0, 0);
    ctx.clearRect(0, 0, p.canvas.width, p.canvas.height);
    if (!p.ready) continue;
    ctx.imageSmoothingEnabled = false;
    ctx.setTransform(view.scale, 0, 0, view.scale, view.ox, view.oy);
    // Both images draw at the volume frame's extent so pan and zoom stay in
    // register even when the 2D image has different native dimensions.
    ctx.drawImage(p.img, 0, 0, frameW, frameH);
  }
}

function attach(canvas) {
  canvas.addEventListener('wheel', function (e) {
    e.preventDefault();
    const f = e.deltaY < 0 ? 1.25 : 0.8;
    const r = canvas.getBoundingClientRect();
    const mx = e.clientX - r.left;
    const my = e.clientY - r.top;
    view.ox = mx - (mx - view.ox) * f;
    view.oy = my - (my - view.oy) * f;
    view.scale *= f;
    redraw();
  }, {passive: false});

  let drag = null;
  canvas.addEventListener('mousedown', function (e) { drag = {x: e.clientX, y: e.clientY}; });
  window.addEventListener('mousemove', function (e) {
    if (!drag) return;
    view.ox += e.clientX - drag.x;
    view.oy += e.clientY - drag.y;
    drag = {x: e.clientX, y: e.clientY};
    redraw();
  });
  window.addEventListener('mouseup', function () { drag = null; });
}

panels.push(makePanel('volume-panel', {{.LeftSrc}}));
panels.push(makePanel('slice-panel', {{.RightSrc}}));
redraw();
</script>
</body>
</html>
`))
