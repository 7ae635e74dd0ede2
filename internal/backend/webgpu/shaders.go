package webgpu

import "fmt"

// WGSL fixes the workgroup size at shader-compile time, so the launch
// group size is formatted into the source and shaders are cached per
// (kernel, group size) pair.

// sigmoidShader applies the logistic function elementwise.
const sigmoidShader = `
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read_write> output: array<f32>;

struct Params {
    size: u32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(%d)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx < params.size) {
        output[idx] = 1.0 / (1.0 + exp(-input[idx]));
    }
}
`

// classifyShader scans the class axis at each output location and writes
// the best value and its channel. Strict greater-than keeps the lowest
// channel on ties. Addressing goes through the strides in Params, so
// non-compact layouts work.
const classifyShader = `
@group(0) @binding(0) var<storage, read> cls: array<f32>;
@group(0) @binding(1) var<storage, read_write> score: array<f32>;
@group(0) @binding(2) var<storage, read_write> index: array<i32>;

struct Params {
    c: u32,
    h: u32,
    w: u32,
    nhw: u32,
    stride_n: u32,
    stride_c: u32,
    stride_h: u32,
    stride_w: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(%d)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx >= params.nhw) {
        return;
    }

    let hw = params.h * params.w;
    let n_idx = idx / hw;
    let rem = idx %% hw;
    let h_idx = rem / params.w;
    let w_idx = rem %% params.w;

    let base = n_idx * params.stride_n + h_idx * params.stride_h + w_idx * params.stride_w;

    var best_c: u32 = 0u;
    var best_val = cls[base];
    for (var c: u32 = 1u; c < params.c; c = c + 1u) {
        let v = cls[base + c * params.stride_c];
        if (v > best_val) {
            best_val = v;
            best_c = c;
        }
    }

    score[idx] = best_val;
    index[idx] = i32(best_c);
}
`

// bboxShader reconstructs one normalized box per location from the
// (cx, cy, cw, ch) regression channels, writing the four coordinates into
// channel-major planes of size N*H*W.
const bboxShader = `
@group(0) @binding(0) var<storage, read> reg: array<f32>;
@group(0) @binding(1) var<storage, read_write> bbox: array<f32>;

struct Params {
    h: u32,
    w: u32,
    nhw: u32,
    stride_n: u32,
    stride_c: u32,
    stride_h: u32,
    stride_w: u32,
    _pad: u32,
    stride_factor: f32,
    image_w: f32,
    image_h: f32,
    _pad2: f32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(%d)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx >= params.nhw) {
        return;
    }

    let hw = params.h * params.w;
    let n_idx = idx / hw;
    let rem = idx %% hw;
    let h_idx = rem / params.w;
    let w_idx = rem %% params.w;

    let base = n_idx * params.stride_n + h_idx * params.stride_h + w_idx * params.stride_w;

    let cx = reg[base];
    let cy = reg[base + params.stride_c];
    let cw = reg[base + 2u * params.stride_c];
    let ch = reg[base + 3u * params.stride_c];

    let grid_x = f32(w_idx) + 0.5;
    let grid_y = f32(h_idx) + 0.5;

    let xmin = clamp((grid_x - cx) * params.stride_factor, 0.0, params.image_w);
    let ymin = clamp((grid_y - cy) * params.stride_factor, 0.0, params.image_h);
    let xmax = clamp((grid_x + cw) * params.stride_factor, 0.0, params.image_w);
    let ymax = clamp((grid_y + ch) * params.stride_factor, 0.0, params.image_h);

    bbox[idx] = clamp(xmin / params.image_w, 0.0, 1.0);
    bbox[idx + params.nhw] = clamp(ymin / params.image_h, 0.0, 1.0);
    bbox[idx + 2u * params.nhw] = clamp(xmax / params.image_w, 0.0, 1.0);
    bbox[idx + 3u * params.nhw] = clamp(ymax / params.image_h, 0.0, 1.0);
}
`

// shaderSource instantiates a shader template for a workgroup size.
func shaderSource(template string, groupSize int) string {
	return fmt.Sprintf(template, groupSize)
}

// shaderKey names a cached shader/pipeline for a (kernel, group size) pair.
func shaderKey(name string, groupSize int) string {
	return fmt.Sprintf("%s_wg%d", name, groupSize)
}
