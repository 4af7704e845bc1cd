// OBJ (Wavefront) format parser for the viewer's interactive models.
package formats

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/Faultbox/veri/pkg/math"
)

// OBJ format errors.
var (
	ErrInvalidOBJLine  = errors.New("invalid OBJ line")
	ErrInvalidOBJIndex = errors.New("OBJ index out of range")
	ErrEmptyOBJ        = errors.New("OBJ has no faces")
)

// OBJVertex is one corner of a face. UV and Normal are -1 when absent.
type OBJVertex struct {
	Position int
	UV       int
	Normal   int
}

// OBJFace is a polygon with three or more corners.
type OBJFace struct {
	Vertices []OBJVertex
	Material string
}

// OBJObject is a named group of faces ("o" or "g").
type OBJObject struct {
	Name  string
	Faces []OBJFace
}

// OBJ holds a parsed Wavefront OBJ file.
type OBJ struct {
	Positions []math.Vec3
	UVs       [][2]float32
	Normals   []math.Vec3
	Objects   []OBJObject
	MtlLib    string
	// Unsupported lists statement keywords that were skipped.
	Unsupported []string
}

// ParseOBJ parses OBJ text. Faces before any "o"/"g" statement go to an
// object named "default". Indices are validated; negative indices are
// relative to the vertices parsed so far.
func ParseOBJ(data []byte) (*OBJ, error) {
	obj := &OBJ{}
	var current *OBJObject
	material := ""
	skipped := make(map[string]bool)

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}

		var err error
		switch fields[0] {
		case "v":
			var v math.Vec3
			v, err = parseVec3(fields[1:])
			obj.Positions = append(obj.Positions, v)
		case "vn":
			var v math.Vec3
			v, err = parseVec3(fields[1:])
			obj.Normals = append(obj.Normals, v)
		case "vt":
			var uv [2]float32
			uv, err = parseUV(fields[1:])
			obj.UVs = append(obj.UVs, uv)
		case "o", "g":
			name := "default"
			if len(fields) > 1 {
				name = strings.Join(fields[1:], " ")
			}
			obj.Objects = append(obj.Objects, OBJObject{Name: name})
			current = &obj.Objects[len(obj.Objects)-1]
		case "f":
			if current == nil {
				obj.Objects = append(obj.Objects, OBJObject{Name: "default"})
				current = &obj.Objects[len(obj.Objects)-1]
			}
			var face OBJFace
			face, err = obj.parseFace(fields[1:])
			face.Material = material
			current.Faces = append(current.Faces, face)
		case "usemtl":
			if len(fields) > 1 {
				material = fields[1]
			}
		case "mtllib":
			if len(fields) > 1 {
				obj.MtlLib = fields[1]
			}
		case "s":
			// smoothing groups do not change the geometry
		default:
			if !skipped[fields[0]] {
				skipped[fields[0]] = true
				obj.Unsupported = append(obj.Unsupported, fields[0])
			}
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading OBJ: %w", err)
	}

	// drop empty groups, e.g. a "g" immediately followed by "o"
	objects := obj.Objects[:0]
	for _, o := range obj.Objects {
		if len(o.Faces) > 0 {
			objects = append(objects, o)
		}
	}
	obj.Objects = objects
	if len(obj.Objects) == 0 {
		return nil, ErrEmptyOBJ
	}
	return obj, nil
}

// ParseOBJFile parses an OBJ file from disk.
func ParseOBJFile(path string) (*OBJ, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading OBJ file: %w", err)
	}
	return ParseOBJ(data)
}

func parseFloats(fields []string, n int) ([]float32, error) {
	if len(fields) < n {
		return nil, fmt.Errorf("%w: want %d values, got %d", ErrInvalidOBJLine, n, len(fields))
	}
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidOBJLine, err)
		}
		out[i] = float32(f)
	}
	return out, nil
}

func parseVec3(fields []string) (math.Vec3, error) {
	f, err := parseFloats(fields, 3)
	if err != nil {
		return math.Vec3{}, err
	}
	return math.Vec3{X: f[0], Y: f[1], Z: f[2]}, nil
}

func parseUV(fields []string) ([2]float32, error) {
	f, err := parseFloats(fields, 2)
	if err != nil {
		return [2]float32{}, err
	}
	return [2]float32{f[0], f[1]}, nil
}

// parseFace parses "f v[/vt][/vn] ...".
func (obj *OBJ) parseFace(fields []string) (OBJFace, error) {
	var face OBJFace
	if len(fields) < 3 {
		return face, fmt.Errorf("%w: face with %d corners", ErrInvalidOBJLine, len(fields))
	}
	for _, f := range fields {
		parts := strings.Split(f, "/")
		v := OBJVertex{UV: -1, Normal: -1}

		var err error
		if v.Position, err = resolveIndex(parts[0], len(obj.Positions)); err != nil {
			return face, err
		}
		if len(parts) > 1 && parts[1] != "" {
			if v.UV, err = resolveIndex(parts[1], len(obj.UVs)); err != nil {
				return face, err
			}
		}
		if len(parts) > 2 && parts[2] != "" {
			if v.Normal, err = resolveIndex(parts[2], len(obj.Normals)); err != nil {
				return face, err
			}
		}
		face.Vertices = append(face.Vertices, v)
	}
	return face, nil
}

// resolveIndex converts a 1-based or negative relative index to 0-based.
func resolveIndex(s string, count int) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidOBJLine, err)
	}
	switch {
	case i > 0:
		i--
	case i < 0:
		i += count
	default:
		return 0, fmt.Errorf("%w: index 0", ErrInvalidOBJIndex)
	}
	if i < 0 || i >= count {
		return 0, fmt.Errorf("%w: %s of %d", ErrInvalidOBJIndex, s, count)
	}
	return i, nil
}

// Triangles returns the object as flat triangle lists, fanning polygons
// from their first corner. Corners without a normal get the face normal;
// corners without a UV get (0, 0).
func (obj *OBJ) Triangles(o *OBJObject) (positions, normals, uvs []float32) {
	for _, face := range o.Faces {
		for k := 1; k+1 < len(face.Vertices); k++ {
			tri := [3]OBJVertex{face.Vertices[0], face.Vertices[k], face.Vertices[k+1]}
			a := obj.Positions[tri[0].Position]
			b := obj.Positions[tri[1].Position]
			c := obj.Positions[tri[2].Position]
			flat := b.Sub(a).Cross(c.Sub(a)).Normalize()

			for _, v := range tri {
				p := obj.Positions[v.Position]
				positions = append(positions, p.X, p.Y, p.Z)

				n := flat
				if v.Normal >= 0 {
					n = obj.Normals[v.Normal]
				}
				normals = append(normals, n.X, n.Y, n.Z)

				var uv [2]float32
				if v.UV >= 0 {
					uv = obj.UVs[v.UV]
				}
				uvs = append(uvs, uv[0], uv[1])
			}
		}
	}
	return positions, normals, uvs
}

// GetTotalFaceCount returns the number of faces across all objects.
func (obj *OBJ) GetTotalFaceCount() int {
	total := 0
	for _, o := range obj.Objects {
		total += len(o.Faces)
	}
	return total
}

// GetObjectByName returns an object by its name, or nil if not found.
func (obj *OBJ) GetObjectByName(name string) *OBJObject {
	for i := range obj.Objects {
		if obj.Objects[i].Name == name {
			return &obj.Objects[i]
		}
	}
	return nil
}
