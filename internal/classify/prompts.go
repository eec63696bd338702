package classify

// Prompts for the two-pass waveguide inspection. The detailed prompt is
// tuned against real photonic layouts; treat wording changes as
// accuracy-affecting and re-validate before shipping them.

const detailedPrompt = `You are a photonics layout verification expert. Given a cropped image of a photonic integrated circuit (PIC) layout block, your task is to detect and explain any discontinuities in waveguide structures.

Context: the image is cropped from a larger layout, so cut-off shapes at the image border are not considered discontinuities.

First, determine whether the image contains actual waveguides. If you see only repetitive grid patterns, plus shapes, rectangles, or regular background structures with no clear channel/gap patterns, there are no waveguides to analyze. Waveguides are hollow channels between colored material boundaries where light travels; background fill elements are not waveguides and must be ignored.

In this image the colored shapes (e.g. teal) represent drawn material. The waveguide is the hollow region between these colored boundaries where light is guided. The waveguide must be relatively smooth and continuous. Smooth tapering is not a discontinuity. A mismatch between two connectors is a potential discontinuity unless it is clearly a resolution artifact.

Assess whether the waveguide shows any offset, step, or misalignment across segments; has a sudden unintended change in width or slope; or breaks its smooth curvature even where the space looks connected, especially around connectors. If you detect a discontinuity, describe it clearly (e.g. "step offset in the lower boundary at center"). If the waveguide is fully continuous and smoothly aligned, say so explicitly, but only after verifying smoothness in both shape and position.

Do not assume the presence of empty space means continuity; a slight step in shape may cause significant optical discontinuity. Judge geometric alignment and shape continuity from what you can actually see. Background is never a discontinuity.`

const fastPromptHeader = `Based on this photonic layout tile and the analysis below, provide EXACTLY ONE WORD classification.

Analysis result: `

const fastPromptFooter = `

Instructions:
- If the analysis indicates there are no waveguides in the tile, respond with: nowaveguide
- If the analysis indicates any discontinuity, misalignment, step, break, gap, or problem, respond with: discontinuity
- If the analysis indicates the waveguide is continuous, smooth, and properly aligned, respond with: continuity
- Respond with ONLY ONE WORD, no explanation, no punctuation: continuity OR discontinuity OR nowaveguide`
