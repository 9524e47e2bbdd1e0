// Package render compiles lesson documents into animated HTML. Compilation is
// a pure transformation: the same document always yields byte-identical
// output, so rendered files can be regenerated or cached freely.
package render

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/yungbote/kydy-backend/internal/observability"
	"github.com/yungbote/kydy-backend/internal/svg"
	"github.com/yungbote/kydy-backend/internal/types"
)

const (
	ModeFull  = "full"
	ModeEmbed = "embed"
)

type compileData struct {
	Topic      string
	LessonID   string
	TotalSteps int
	Steps      []stepData
	Styles     template.CSS
	Player     template.JS
}

type stepData struct {
	Index     int
	Active    bool
	Title     string
	Descr     string
	KeyPoints []string
	Formula   string
	Duration  int
	Assets    []assetData
	Indicator string
}

type assetData struct {
	ContainerID string
	Inline      template.HTML
	URL         string
}

// Compile renders a document in the given mode. ModeFull emits a standalone
// page with header, controls, progress bar and the playback script; ModeEmbed
// emits only the stylesheet and step timeline, leaving playback to the host
// page via the data-step-index / data-duration attributes.
func Compile(doc *types.LessonDocument, mode string) (string, error) {
	if doc == nil {
		return "", fmt.Errorf("render: nil document")
	}

	tpl := embedTemplate
	switch mode {
	case ModeFull:
		tpl = fullTemplate
	case ModeEmbed:
	default:
		return "", fmt.Errorf("render: unknown mode %q", mode)
	}

	topic := doc.Topic
	if topic == "" {
		topic = "Untitled Lesson"
	}
	data := compileData{
		Topic:      topic,
		LessonID:   doc.LessonID,
		TotalSteps: len(doc.Timeline),
		Styles:     template.CSS(pageStyles),
		Player:     template.JS(playerScript),
	}
	for _, step := range doc.Timeline {
		title := step.Title
		if title == "" {
			title = fmt.Sprintf("Step %d", step.StepIndex+1)
		}
		sd := stepData{
			Index:     step.StepIndex,
			Active:    step.StepIndex == 0,
			Title:     title,
			Descr:     step.Description,
			KeyPoints: step.KeyPoints,
			Formula:   step.Formula,
			Duration:  step.DurationSeconds,
			Indicator: fmt.Sprintf("Step %d of %d • Duration: %ds", step.StepIndex+1, len(doc.Timeline), step.DurationSeconds),
		}
		for assetIdx, asset := range step.Assets {
			ad := assetData{
				ContainerID: fmt.Sprintf("asset-%d-%d", step.StepIndex, assetIdx),
				URL:         asset.URL,
			}
			if asset.SVG != "" {
				// Bodies are sanitized at resolution time; sanitizing again
				// here keeps the inline-markup guarantee local to this
				// package, and the pass is idempotent so determinism holds.
				ad.Inline = template.HTML(svg.Sanitize(asset.SVG))
			}
			sd.Assets = append(sd.Assets, ad)
		}
		data.Steps = append(data.Steps, sd)
	}

	var sb strings.Builder
	if err := tpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render: execute template: %w", err)
	}
	if m := observability.Current(); m != nil {
		m.ObserveCompile(mode)
	}
	return sb.String(), nil
}

const timelineTemplate = `{{define "timeline"}}<div id="lesson-timeline">
{{- range .Steps}}
<div class="step-container{{if .Active}} active{{end}}" id="step-{{.Index}}" data-step-index="{{.Index}}" data-duration="{{.Duration}}">
<div class="step-title">{{.Title}}</div>
<div class="step-description">{{.Descr}}</div>
{{- if .KeyPoints}}
<div class="key-points">
<h3>Key Points:</h3>
<ol>
{{- range .KeyPoints}}
<li>{{.}}</li>
{{- end}}
</ol>
</div>
{{- end}}
{{- if .Formula}}
<div class="formula-box" id="formula-{{.Index}}">{{.Formula}}</div>
{{- end}}
{{- range .Assets}}
<div class="asset-container" id="{{.ContainerID}}">
{{- if .Inline}}
{{.Inline}}
{{- else if .URL}}
<p class="asset-pending">Loading asset from {{.URL}}...</p>
{{- else}}
<p class="asset-pending">No asset available</p>
{{- end}}
</div>
{{- end}}
<div class="step-indicator">{{.Indicator}}</div>
</div>
{{- end}}
</div>{{end}}`

var fullTemplate = template.Must(template.New("full").Parse(timelineTemplate + `<!DOCTYPE html>
<html>
<head>
<title>Animated Lesson: {{.Topic}}</title>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<script src="https://cdn.jsdelivr.net/npm/animejs@3.2.1/lib/anime.min.js"></script>
<style>{{.Styles}}</style>
</head>
<body>
<div class="header">
<h1>{{.Topic}}</h1>
<p class="lesson-meta">Lesson ID: {{.LessonID}}</p>
</div>
<div class="controls">
<button class="btn" id="play-btn" onclick="playAnimation()">&#9654; Play</button>
<button class="btn" id="pause-btn" onclick="pauseAnimation()" disabled>&#9208; Pause</button>
<button class="btn" id="prev-btn" onclick="previousStep()">&#9198; Previous</button>
<button class="btn" id="next-btn" onclick="nextStep()">Next &#9197;</button>
<button class="btn" id="restart-btn" onclick="restartAnimation()">&#8635; Restart</button>
</div>
{{template "timeline" .}}
<div class="progress-bar">
<div class="progress-fill" id="progress-fill"></div>
</div>
<script>
const totalSteps = {{.TotalSteps}};
{{.Player}}
</script>
</body>
</html>
`))

var embedTemplate = template.Must(template.New("embed").Parse(timelineTemplate + `<style>{{.Styles}}</style>
{{template "timeline" .}}
`))

const pageStyles = `
* { margin: 0; padding: 0; box-sizing: border-box; }
body {
  font-family: system-ui, -apple-system, sans-serif;
  background: linear-gradient(135deg, #1a1a1a 0%, #2d2d2d 100%);
  color: #fff;
  min-height: 100vh;
  padding: 20px;
}
.header {
  text-align: center;
  margin-bottom: 30px;
  padding: 20px;
  background: rgba(255, 255, 255, 0.05);
  border-radius: 12px;
  backdrop-filter: blur(10px);
}
.header h1 {
  font-size: 2.5rem;
  margin-bottom: 10px;
  background: linear-gradient(135deg, #3b82f6, #8b5cf6);
  -webkit-background-clip: text;
  -webkit-text-fill-color: transparent;
}
.lesson-meta { color: #9ca3af; }
.controls {
  display: flex;
  gap: 15px;
  justify-content: center;
  margin-bottom: 30px;
  flex-wrap: wrap;
}
.btn {
  padding: 12px 24px;
  background: linear-gradient(135deg, #3b82f6, #2563eb);
  color: white;
  border: none;
  border-radius: 8px;
  cursor: pointer;
  font-size: 16px;
  font-weight: 600;
  transition: transform 0.2s, box-shadow 0.2s;
  box-shadow: 0 4px 6px rgba(0, 0, 0, 0.3);
}
.btn:hover {
  transform: translateY(-2px);
  box-shadow: 0 6px 12px rgba(59, 130, 246, 0.4);
}
.btn:active { transform: translateY(0); }
.btn:disabled { opacity: 0.5; cursor: not-allowed; }
.step-container {
  margin: 40px auto;
  max-width: 1200px;
  padding: 30px;
  background: rgba(255, 255, 255, 0.05);
  border-radius: 16px;
  border: 1px solid rgba(255, 255, 255, 0.1);
  backdrop-filter: blur(10px);
  box-shadow: 0 8px 32px rgba(0, 0, 0, 0.3);
  display: none;
}
.step-container.active {
  display: block;
  animation: fadeIn 0.5s ease-in;
}
@keyframes fadeIn {
  from { opacity: 0; transform: translateY(20px); }
  to { opacity: 1; transform: translateY(0); }
}
.step-title {
  font-size: 2rem;
  font-weight: bold;
  margin-bottom: 15px;
  color: #fff;
  text-align: center;
}
.step-description {
  font-size: 1.1rem;
  line-height: 1.6;
  color: #d1d5db;
  margin-bottom: 25px;
  text-align: center;
}
.key-points {
  margin: 25px 0;
  padding: 20px;
  background: rgba(59, 130, 246, 0.1);
  border-left: 4px solid #3b82f6;
  border-radius: 8px;
}
.key-points h3 {
  font-size: 1.2rem;
  margin-bottom: 15px;
  color: #93c5fd;
}
.key-points ol {
  list-style: none;
  padding: 0;
}
.key-points li {
  padding: 10px 0;
  padding-left: 30px;
  position: relative;
  color: #e5e7eb;
  font-size: 1rem;
  opacity: 0;
  transform: translateX(-20px);
}
.key-points li:before {
  content: "\2713";
  position: absolute;
  left: 0;
  color: #3b82f6;
  font-size: 1.2rem;
  font-weight: bold;
}
.formula-box {
  margin: 25px 0;
  padding: 20px;
  background: linear-gradient(135deg, rgba(139, 92, 246, 0.2), rgba(59, 130, 246, 0.2));
  border: 2px solid #8b5cf6;
  border-radius: 12px;
  text-align: center;
  font-family: 'Courier New', monospace;
  font-size: 1.5rem;
  font-weight: bold;
  color: #c4b5fd;
  opacity: 0;
  transform: scale(0.9);
}
.asset-container {
  margin: 30px 0;
  padding: 30px;
  background: rgba(0, 0, 0, 0.3);
  border-radius: 12px;
  display: flex;
  justify-content: center;
  align-items: center;
  min-height: 300px;
  overflow: hidden;
}
.asset-container svg {
  max-width: 100%;
  height: auto;
  display: block !important;
  visibility: visible !important;
  opacity: 0;
  transform: scale(0.8);
}
.asset-pending { color: #999; }
.progress-bar {
  position: fixed;
  bottom: 0;
  left: 0;
  right: 0;
  height: 4px;
  background: rgba(255, 255, 255, 0.1);
  z-index: 1000;
}
.progress-fill {
  height: 100%;
  background: linear-gradient(90deg, #3b82f6, #8b5cf6);
  width: 0%;
  transition: width 0.3s ease;
}
.step-indicator {
  text-align: center;
  margin-top: 20px;
  color: #9ca3af;
  font-size: 0.9rem;
}
`

// Client-side step sequencer. Dwell times come from the data-duration
// attributes the compiler emits, so the script stays generic across lessons.
const playerScript = `
let currentStep = 0;
let isPlaying = false;
let animationTimers = [];

function showStep(stepIndex) {
  document.querySelectorAll('.step-container').forEach((step, idx) => {
    step.classList.remove('active');
    if (idx === stepIndex) {
      step.classList.add('active');
    }
  });

  const progress = ((stepIndex + 1) / totalSteps) * 100;
  document.getElementById('progress-fill').style.width = progress + '%';

  animateStep(stepIndex);
}

function animateStep(stepIndex) {
  const stepContainer = document.getElementById('step-' + stepIndex);
  if (!stepContainer) return;

  animationTimers.forEach(timer => clearTimeout(timer));
  animationTimers = [];

  const keyPoints = stepContainer.querySelectorAll('.key-points li');
  keyPoints.forEach((point, idx) => {
    const timer = setTimeout(() => {
      anime({
        targets: point,
        opacity: [0, 1],
        transform: ['translateX(-20px)', 'translateX(0)'],
        duration: 600,
        easing: 'easeOutQuad'
      });
    }, 500 + (idx * 200));
    animationTimers.push(timer);
  });

  const formula = stepContainer.querySelector('.formula-box');
  if (formula) {
    const timer = setTimeout(() => {
      anime({
        targets: formula,
        opacity: [0, 1],
        scale: [0.9, 1],
        duration: 800,
        easing: 'easeOutQuad'
      });
    }, 1000);
    animationTimers.push(timer);
  }

  const svgs = stepContainer.querySelectorAll('.asset-container svg');
  svgs.forEach((svgEl, svgIdx) => {
    const timer = setTimeout(() => {
      anime({
        targets: svgEl,
        opacity: [0, 1],
        scale: [0.8, 1],
        duration: 2000,
        easing: 'easeOutQuad'
      });

      const paths = svgEl.querySelectorAll('path');
      paths.forEach((path, pIdx) => {
        const length = path.getTotalLength();
        if (length > 0) {
          path.style.strokeDasharray = length;
          path.style.strokeDashoffset = length;
          anime({
            targets: path,
            strokeDashoffset: [length, 0],
            duration: 2500,
            delay: 500 + (pIdx * 150),
            easing: 'easeInOutQuad'
          });
        }
      });

      const lines = svgEl.querySelectorAll('line');
      lines.forEach((line, lIdx) => {
        line.style.opacity = '0';
        anime({
          targets: line,
          opacity: [0, 1],
          duration: 1000,
          delay: 800 + (lIdx * 150),
          easing: 'easeOutQuad'
        });
      });

      const rects = svgEl.querySelectorAll('rect');
      rects.forEach((rect, rIdx) => {
        rect.style.opacity = '0';
        anime({
          targets: rect,
          opacity: [0, 1],
          duration: 1000,
          delay: 1000 + (rIdx * 150),
          easing: 'easeOutQuad'
        });
      });

      const texts = svgEl.querySelectorAll('text');
      texts.forEach((text, tIdx) => {
        text.style.opacity = '0';
        anime({
          targets: text,
          opacity: [0, 1],
          duration: 800,
          delay: 1200 + (tIdx * 100),
          easing: 'easeOutQuad'
        });
      });

      const circles = svgEl.querySelectorAll('circle');
      circles.forEach((circle, cIdx) => {
        circle.style.opacity = '0';
        anime({
          targets: circle,
          opacity: [0, 1],
          scale: [0.8, 1],
          duration: 800,
          delay: 1000 + (cIdx * 100),
          easing: 'easeOutQuad'
        });
      });
    }, svgIdx * 300);
    animationTimers.push(timer);
  });
}

function playAnimation() {
  if (isPlaying) return;
  isPlaying = true;
  document.getElementById('play-btn').disabled = true;
  document.getElementById('pause-btn').disabled = false;

  const step = document.getElementById('step-' + currentStep);
  if (step) {
    const duration = parseInt(step.dataset.duration, 10) * 1000;
    const timer = setTimeout(() => {
      if (currentStep < totalSteps - 1) {
        nextStep();
      } else {
        pauseAnimation();
      }
    }, duration);
    animationTimers.push(timer);
  }
}

function pauseAnimation() {
  isPlaying = false;
  document.getElementById('play-btn').disabled = false;
  document.getElementById('pause-btn').disabled = true;
  animationTimers.forEach(timer => clearTimeout(timer));
  animationTimers = [];
}

function nextStep() {
  if (currentStep < totalSteps - 1) {
    currentStep++;
    showStep(currentStep);
    if (isPlaying) {
      isPlaying = false;
      playAnimation();
    }
  }
}

function previousStep() {
  if (currentStep > 0) {
    currentStep--;
    showStep(currentStep);
    if (isPlaying) {
      isPlaying = false;
      playAnimation();
    }
  }
}

function restartAnimation() {
  pauseAnimation();
  currentStep = 0;
  showStep(currentStep);
}

showStep(0);

setTimeout(() => {
  playAnimation();
}, 1000);
`
