package renderer

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/gltfio/internal/engine/shader"
	"github.com/Faultbox/gltfio/pkg/formats"
	"github.com/Faultbox/gltfio/pkg/gltfio"
)

const vertexShader = `#version 410 core

layout (location = 0) in vec3 aPosition;
layout (location = 1) in vec3 aNormal;
layout (location = 3) in vec4 aColor;
layout (location = 4) in vec2 aUV0;
layout (location = 5) in vec2 aUV1;

uniform mat4 uModel;
uniform mat4 uViewProj;

out vec3 vNormal;
out vec4 vColor;
out vec2 vUV0;
out vec2 vUV1;

void main() {
    vNormal = mat3(transpose(inverse(uModel))) * aNormal;
    vColor = aColor;
    vUV0 = aUV0;
    vUV1 = aUV1;
    gl_Position = uViewProj * uModel * vec4(aPosition, 1.0);
}
`

const fragmentShader = `#version 410 core

in vec3 vNormal;
in vec4 vColor;
in vec2 vUV0;
in vec2 vUV1;

uniform vec4 uBaseColorFactor;
uniform vec3 uEmissiveFactor;
uniform float uAlphaCutoff;
uniform vec3 uLightDir;
uniform sampler2D uBaseColorMap;
uniform sampler2D uEmissiveMap;

out vec4 FragColor;

void main() {
    vec4 color = uBaseColorFactor * vColor;
#ifdef HAS_BASE_COLOR_MAP
#ifdef BASE_COLOR_UV1
    color *= texture(uBaseColorMap, vUV1);
#else
    color *= texture(uBaseColorMap, vUV0);
#endif
#endif
#ifdef ALPHA_MASK
    if (color.a < uAlphaCutoff) {
        discard;
    }
#endif
#ifndef UNLIT
    vec3 n = length(vNormal) > 0.0 ? normalize(vNormal) : vec3(0.0, 0.0, 1.0);
#ifdef DOUBLE_SIDED
    if (!gl_FrontFacing) {
        n = -n;
    }
#endif
    float diffuse = max(dot(n, -uLightDir), 0.0);
    color.rgb *= 0.3 + 0.7 * diffuse;
#endif
    vec3 emissive = uEmissiveFactor;
#ifdef HAS_EMISSIVE_MAP
    emissive *= texture(uEmissiveMap, vUV0).rgb;
#endif
    color.rgb += emissive;
#ifndef ALPHA_BLEND
    color.a = 1.0;
#endif
    FragColor = color;
}
`

// program is a compiled material variant.
type program struct {
	id           uint32
	model        int32
	viewProj     int32
	baseColor    int32
	emissive     int32
	alphaCutoff  int32
	lightDir     int32
	baseColorMap int32
	emissiveMap  int32
}

// defines returns the shader flags selected by a material shape.
func defines(key gltfio.MaterialKey) []string {
	var d []string
	if key.Unlit {
		d = append(d, "UNLIT")
	}
	if key.DoubleSided {
		d = append(d, "DOUBLE_SIDED")
	}
	switch key.AlphaMode {
	case formats.AlphaMask:
		d = append(d, "ALPHA_MASK")
	case formats.AlphaBlend:
		d = append(d, "ALPHA_BLEND")
	}
	if key.HasBaseColorTexture {
		d = append(d, "HAS_BASE_COLOR_MAP")
		if key.BaseColorUV == 1 {
			d = append(d, "BASE_COLOR_UV1")
		}
	}
	if key.HasEmissiveTexture {
		d = append(d, "HAS_EMISSIVE_MAP")
	}
	return d
}

// programFor returns the program of a material shape, compiling it on first use.
func (r *Renderer) programFor(key gltfio.MaterialKey) (*program, error) {
	if p, ok := r.programs[key]; ok {
		return p, nil
	}

	flags := defines(key)
	id, err := shader.CompileProgram(shader.Variant(vertexShader, flags...), shader.Variant(fragmentShader, flags...))
	if err != nil {
		return nil, fmt.Errorf("material variant %v: %w", flags, err)
	}

	p := &program{
		id:           id,
		model:        shader.Uniform(id, "uModel"),
		viewProj:     shader.Uniform(id, "uViewProj"),
		baseColor:    shader.Uniform(id, "uBaseColorFactor"),
		emissive:     shader.Uniform(id, "uEmissiveFactor"),
		alphaCutoff:  shader.Uniform(id, "uAlphaCutoff"),
		lightDir:     shader.Uniform(id, "uLightDir"),
		baseColorMap: shader.Uniform(id, "uBaseColorMap"),
		emissiveMap:  shader.Uniform(id, "uEmissiveMap"),
	}
	gl.UseProgram(id)
	if unit, ok := textureUnit(gltfio.ParamBaseColorMap); ok {
		gl.Uniform1i(p.baseColorMap, unit)
	}
	if unit, ok := textureUnit(gltfio.ParamEmissiveMap); ok {
		gl.Uniform1i(p.emissiveMap, unit)
	}

	r.programs[key] = p
	r.log.Debug("material variant compiled", zap.Strings("defines", flags), zap.Uint32("program", id))
	return p, nil
}

// bindMaterial activates the program of a material instance and uploads its
// parameters.
func (r *Renderer) bindMaterial(mi *gltfio.MaterialInstance) (*program, error) {
	p, err := r.programFor(mi.Key)
	if err != nil {
		return nil, err
	}
	gl.UseProgram(p.id)
	gl.Uniform4fv(p.baseColor, 1, &mi.BaseColorFactor[0])
	gl.Uniform3fv(p.emissive, 1, &mi.EmissiveFactor[0])
	gl.Uniform1f(p.alphaCutoff, mi.Key.AlphaMaskThreshold)
	gl.Uniform3fv(p.lightDir, 1, &r.lightDir[0])

	for _, param := range []string{gltfio.ParamBaseColorMap, gltfio.ParamEmissiveMap} {
		tex, ok := mi.Texture(param)
		if !ok {
			continue
		}
		if unit, ok := textureUnit(param); ok {
			r.textures.bind(unit, tex)
		}
	}

	if mi.Key.DoubleSided {
		gl.Disable(gl.CULL_FACE)
	} else {
		gl.Enable(gl.CULL_FACE)
	}
	if mi.Key.AlphaMode == formats.AlphaBlend {
		gl.Enable(gl.BLEND)
		gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	} else {
		gl.Disable(gl.BLEND)
	}
	return p, nil
}
