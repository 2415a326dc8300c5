// gen_fields 用法说明：
// 0. 参与生成的前置条件
//   - domain 结构体必须带 `// entity` 注释（例如 `internal/book/domain/book.go`）。
//   - 只处理导出字段。
//
// 1. 生成产物
//   - 每个实体一个 `XxxFields = patchx.NewRegistry[Xxx](...)`，写入 domain 目录的 field_gen.go。
//
// 2. 字段注释能力
//   - `// patch:identity`：身份字段，不可写；一对多协调时作为成员身份（要求有同名 GetXxx 方法）。
//   - `// patch:readonly`：只读字段（时间戳等），不进入注册表。
//   - `// patch:name=xxx`：覆盖字段名（默认是首字母小写的字段名）。
//
// 3. 字段分类
//   - `[]*X` 且 X 是 entity：一对多字段，clone 使用 `NewXFrom`。
//   - `time.Time`：按 Equal 比较的标量字段。
//   - 其余：按 == 比较的标量字段。
//
// 4. 常用命令
//   - `go run internal/scripts/gen_fields.go -root . -module book`
package main

import (
	"bytes"
	"flag"
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/printer"
	"go/token"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

const (
	defaultRepoRoot        = "."
	defaultInternalDir     = "internal"
	defaultBlueprintRelDir = "domain"
	defaultEntityTag       = "entity"
	defaultFieldGenFile    = "field_gen.go"
	patchxImportSuffix     = "modules/kit/patchx"
)

var (
	flagRoot      = flag.String("root", defaultRepoRoot, "repo root path (must contain go.mod)")
	flagInternal  = flag.String("internal", defaultInternalDir, "internal dir under repo root")
	flagModule    = flag.String("module", "", "module dir name under internal (e.g. book). empty = scan all")
	flagDomainDir = flag.String("domain_dir", defaultBlueprintRelDir, "domain dir relative to module dir (contains // entity)")
	flagEntityTag = flag.String("entity_tag", defaultEntityTag, "comment tag used to mark entities")
	flagFieldFile = flag.String("field_file", defaultFieldGenFile, "generated field filename in domain dir")
)

var (
	reIdentity = regexp.MustCompile(`\bpatch:identity\b`)
	reReadonly = regexp.MustCompile(`\bpatch:readonly\b`)
	reName     = regexp.MustCompile(`\bpatch:name=([A-Za-z0-9_]+)`)
)

type fieldKind int

const (
	kindScalar fieldKind = iota
	kindTime
	kindToMany
)

type fieldInfo struct {
	GoName   string
	Name     string
	TypeExpr string
	Kind     fieldKind
	Elem     string // kindToMany 的成员实体名
	Identity bool
	Readonly bool
}

type structInfo struct {
	Name    string
	Fields  []fieldInfo
	Imports map[string]string // 字段类型用到的包别名 -> import path
}

func main() {
	flag.Parse()

	rootAbs, err := filepath.Abs(*flagRoot)
	must(err)
	modPath, err := readGoModModulePath(filepath.Join(rootAbs, "go.mod"))
	must(err)

	modules, err := listModules(filepath.Join(rootAbs, *flagInternal), *flagModule, *flagDomainDir)
	must(err)

	for _, mod := range modules {
		domainAbs := filepath.Join(rootAbs, *flagInternal, mod, filepath.FromSlash(*flagDomainDir))
		pkgName, entities := parseEntities(domainAbs, *flagEntityTag)
		if len(entities) == 0 {
			continue
		}
		src, err := render(pkgName, modPath+"/"+patchxImportSuffix, entities)
		must(err)
		must(writeGoFile(filepath.Join(domainAbs, *flagFieldFile), src))
		fmt.Printf("gen_fields: %s -> %d entities\n", mod, len(entities))
	}
}

func listModules(internalAbs, onlyModule, domainRel string) ([]string, error) {
	if onlyModule != "" {
		if !existsDir(filepath.Join(internalAbs, onlyModule, filepath.FromSlash(domainRel))) {
			return nil, nil
		}
		return []string{onlyModule}, nil
	}
	ents, err := os.ReadDir(internalAbs)
	if err != nil {
		return nil, err
	}
	var mods []string
	for _, e := range ents {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if existsDir(filepath.Join(internalAbs, e.Name(), filepath.FromSlash(domainRel))) {
			mods = append(mods, e.Name())
		}
	}
	sort.Strings(mods)
	return mods, nil
}

func parseEntities(dirAbs, tag string) (string, []structInfo) {
	fset := token.NewFileSet()
	pkgs, err := parser.ParseDir(fset, dirAbs, func(fi os.FileInfo) bool {
		name := fi.Name()
		if strings.HasSuffix(name, "_test.go") || strings.HasSuffix(name, "_gen.go") || name == *flagFieldFile {
			return false
		}
		return strings.HasSuffix(name, ".go")
	}, parser.ParseComments)
	must(err)

	var pkg *ast.Package
	for _, p := range pkgs {
		pkg = p
		break
	}
	if pkg == nil {
		return "", nil
	}

	var out []structInfo
	for _, f := range pkg.Files {
		aliases := fileImportAliasMap(f)
		for _, decl := range f.Decls {
			gd, ok := decl.(*ast.GenDecl)
			if !ok || gd.Tok != token.TYPE {
				continue
			}
			for _, spec := range gd.Specs {
				ts, ok := spec.(*ast.TypeSpec)
				if !ok {
					continue
				}
				st, ok := ts.Type.(*ast.StructType)
				if !ok || (!hasTag(ts.Doc, tag) && !hasTag(gd.Doc, tag)) {
					continue
				}
				si := structInfo{Name: ts.Name.Name, Imports: map[string]string{}}
				for _, fld := range st.Fields.List {
					if len(fld.Names) == 0 || !fld.Names[0].IsExported() {
						continue
					}
					txt := fieldCommentText(fld)
					fi := fieldInfo{
						GoName:   fld.Names[0].Name,
						Name:     lowerFirst(fld.Names[0].Name),
						TypeExpr: exprString(fset, fld.Type),
						Identity: reIdentity.MatchString(txt),
						Readonly: reReadonly.MatchString(txt),
					}
					if m := reName.FindStringSubmatch(txt); len(m) == 2 {
						fi.Name = m[1]
					}
					for _, alias := range collectSelectorAliases(fld.Type) {
						if p, ok := aliases[alias]; ok {
							si.Imports[alias] = p
						}
					}
					si.Fields = append(si.Fields, fi)
				}
				out = append(out, si)
			}
		}
	}

	names := map[string]bool{}
	for _, e := range out {
		names[e.Name] = true
	}
	for i := range out {
		for j := range out[i].Fields {
			f := &out[i].Fields[j]
			switch {
			case f.TypeExpr == "time.Time":
				f.Kind = kindTime
			case strings.HasPrefix(f.TypeExpr, "[]*") && names[strings.TrimPrefix(f.TypeExpr, "[]*")]:
				f.Kind = kindToMany
				f.Elem = strings.TrimPrefix(f.TypeExpr, "[]*")
			default:
				f.Kind = kindScalar
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return pkg.Name, out
}

func identityOf(entities []structInfo, name string) (string, error) {
	for _, e := range entities {
		if e.Name != name {
			continue
		}
		for _, f := range e.Fields {
			if f.Identity {
				return f.GoName, nil
			}
		}
		return "", fmt.Errorf("entity %s has no // patch:identity field", name)
	}
	return "", fmt.Errorf("entity %s not found", name)
}

func render(pkgName, patchxPath string, entities []structInfo) ([]byte, error) {
	imports := map[string]string{}
	var body bytes.Buffer
	for _, e := range entities {
		fmt.Fprintf(&body, "// %sFields 是 %s 的可写字段注册表。\n", e.Name, e.Name)
		fmt.Fprintf(&body, "var %sFields = patchx.NewRegistry[%s](\n", e.Name, e.Name)
		for _, f := range e.Fields {
			if f.Identity || f.Readonly {
				continue
			}
			get := fmt.Sprintf("func(e *%s) %s { return e.%s }", e.Name, f.TypeExpr, f.GoName)
			set := fmt.Sprintf("func(e *%s, v %s) { e.%s = v }", e.Name, f.TypeExpr, f.GoName)
			switch f.Kind {
			case kindToMany:
				idField, err := identityOf(entities, f.Elem)
				if err != nil {
					return nil, err
				}
				fmt.Fprintf(&body, "\tpatchx.ToMany(%s, func(e *%s) *%s { return &e.%s }, (*%s).Get%s, func(e *%s) *%s { return New%sFrom(e) }),\n",
					strconv.Quote(f.Name), e.Name, f.TypeExpr, f.GoName, f.Elem, idField, f.Elem, f.Elem, f.Elem)
			case kindTime:
				imports["time"] = "time"
				fmt.Fprintf(&body, "\tpatchx.ScalarEq(%s, %s, %s, time.Time.Equal),\n", strconv.Quote(f.Name), get, set)
			default:
				for alias, p := range e.Imports {
					if strings.Contains(f.TypeExpr, alias+".") {
						imports[alias] = p
					}
				}
				fmt.Fprintf(&body, "\tpatchx.Scalar(%s, %s, %s),\n", strconv.Quote(f.Name), get, set)
			}
		}
		body.WriteString(")\n\n")
	}

	var buf bytes.Buffer
	buf.WriteString("// Code generated by gen_fields.go. DO NOT EDIT.\n\n")
	fmt.Fprintf(&buf, "package %s\n\n", pkgName)
	buf.WriteString("import (\n")
	paths := make([]string, 0, len(imports))
	for _, p := range imports {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		fmt.Fprintf(&buf, "\t%s\n", strconv.Quote(p))
	}
	if len(paths) > 0 {
		buf.WriteString("\n")
	}
	fmt.Fprintf(&buf, "\t%s\n)\n\n", strconv.Quote(patchxPath))
	buf.Write(body.Bytes())
	return buf.Bytes(), nil
}

// ---------- ast helpers ----------

func hasTag(cg *ast.CommentGroup, tag string) bool {
	if cg == nil {
		return false
	}
	t := strings.ToLower(tag)
	for _, c := range cg.List {
		if strings.TrimSpace(strings.ToLower(strings.TrimPrefix(c.Text, "//"))) == t {
			return true
		}
	}
	return false
}

func fieldCommentText(f *ast.Field) string {
	var parts []string
	if f.Doc != nil {
		parts = append(parts, f.Doc.Text())
	}
	if f.Comment != nil {
		parts = append(parts, f.Comment.Text())
	}
	return strings.Join(parts, "\n")
}

func fileImportAliasMap(f *ast.File) map[string]string {
	out := map[string]string{}
	for _, imp := range f.Imports {
		p, err := strconv.Unquote(imp.Path.Value)
		if err != nil {
			continue
		}
		alias := filepath.Base(p)
		if imp.Name != nil {
			alias = imp.Name.Name
		}
		out[alias] = p
	}
	return out
}

func collectSelectorAliases(node ast.Node) []string {
	var out []string
	ast.Inspect(node, func(n ast.Node) bool {
		sel, ok := n.(*ast.SelectorExpr)
		if !ok {
			return true
		}
		if id, ok := sel.X.(*ast.Ident); ok {
			out = append(out, id.Name)
		}
		return false
	})
	return out
}

func exprString(fset *token.FileSet, e ast.Expr) string {
	var b bytes.Buffer
	_ = printer.Fprint(&b, fset, e)
	return b.String()
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

func writeGoFile(path string, src []byte) error {
	formatted, err := format.Source(src)
	if err != nil {
		_ = os.WriteFile(path+".bad", src, 0o644)
		return err
	}
	return os.WriteFile(path, formatted, 0o644)
}

func readGoModModulePath(goModPath string) (string, error) {
	b, err := os.ReadFile(goModPath)
	if err != nil {
		return "", err
	}
	for _, ln := range strings.Split(string(b), "\n") {
		ln = strings.TrimSpace(ln)
		if strings.HasPrefix(ln, "module ") {
			return strings.TrimSpace(strings.TrimPrefix(ln, "module ")), nil
		}
	}
	return "", fmt.Errorf("cannot find module path in %s", goModPath)
}

func existsDir(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
