package webgpu

// layernormWorkgroupSize is the number of rows each workgroup covers.
const layernormWorkgroupSize = 256

// layernormShader normalizes each row of a 2-D input: one thread per row
// computes the naive sum / sum-of-squares statistics, then writes the
// normalized, scaled, and shifted row plus the saved mean and inverse
// standard deviation. The formula mirrors the reference oracle exactly so
// only float reassociation inside the driver can cause drift.
const layernormShader = `
@group(0) @binding(0) var<storage, read> x: array<f32>;
@group(0) @binding(1) var<storage, read> gamma: array<f32>;
@group(0) @binding(2) var<storage, read> beta: array<f32>;
@group(0) @binding(3) var<storage, read_write> y: array<f32>;
@group(0) @binding(4) var<storage, read_write> save_mean: array<f32>;
@group(0) @binding(5) var<storage, read_write> save_inv_std: array<f32>;

struct Params {
    m: u32,
    n: u32,
    epsilon: f32,
}
@group(0) @binding(6) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let row = global_id.x;
    if (row >= params.m) {
        return;
    }

    let offset = row * params.n;

    var sum: f32 = 0.0;
    var sum_sq: f32 = 0.0;
    for (var i: u32 = 0u; i < params.n; i = i + 1u) {
        let v = x[offset + i];
        sum = sum + v;
        sum_sq = sum_sq + v * v;
    }

    let mean = sum / f32(params.n);
    let variance = sum_sq / f32(params.n) - mean * mean;
    let inv_std = 1.0 / sqrt(variance + params.epsilon);

    for (var i: u32 = 0u; i < params.n; i = i + 1u) {
        let norm = (x[offset + i] - mean) * inv_std;
        y[offset + i] = norm * gamma[i] + beta[i];
    }

    save_mean[row] = mean;
    save_inv_std[row] = inv_std;
}
`
