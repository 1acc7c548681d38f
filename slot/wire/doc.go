// Package wire converts slot types to and from exchange formats.
//
//   - CBOR: canonical binary form of types and manifests. Compiled guests
//     carry a Manifest in the SectionName custom section.
//   - YAML: human-written slot schemas, see ParseSchema.
//   - WIT: FromWIT maps component-model interface types onto slot types.
//
// Decoding never hands out half-built trees: every node is rebuilt through
// the slot constructors and nesting is limited to MaxDepth.
package wire
