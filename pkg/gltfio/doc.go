// Package gltfio builds runtime scene graphs from normalized glTF documents.
//
// A Loader walks the document's node forest once, creating one entity per node
// with a transform that mirrors the source hierarchy, and a renderable for every
// node that references a mesh. Vertex and index buffers are created at most once
// per mesh and material instances at most once per material definition; every
// renderable referencing them shares the same handles.
//
// The loader never touches bytes. It emits BufferBinding and TextureBinding
// records that a separate resource stage consumes to fill the GPU objects.
//
// Structural problems are collected as diagnostics while the walk continues,
// then the whole asset is rolled back if any of them is an error. Warnings
// (a texture without an image, an unsupported secondary workflow) only omit the
// affected feature.
//
// An Animator decodes animation samplers of a built asset into ordered keyframe
// tracks and applies them to entity transforms at a given time.
package gltfio
