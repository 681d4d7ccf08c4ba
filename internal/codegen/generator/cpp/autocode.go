package cpp

const autocodeTemplate = `{{.Header}}
#ifndef {{.Guard}}
#define {{.Guard}}

#include <array>
#include <cstring>
#include <sstream>
#include <string>
{{range .Includes}}
#include "{{.}}"
{{- end}}

{{range .Namespaces}}namespace {{.}}
{
{{end}}
namespace detail
{
// parseValue assigns out only when the whole text converts.
template<typename T>
inline bool parseValue(std::string const & text, T & out)
{
  std::istringstream in(text);
  T value{};
  if (!(in >> value))
    return false;
  in >> std::ws;
  if (!in.eof())
    return false;
  out = value;
  return true;
}

// Character members take exactly one character, whitespace included.
template<typename C>
inline bool parseChar(std::string const & text, C & out)
{
  if (text.size() != 1)
    return false;
  out = static_cast<C>(text[0]);
  return true;
}

inline bool parseValue(std::string const & text, char & out) { return parseChar(text, out); }
inline bool parseValue(std::string const & text, signed char & out) { return parseChar(text, out); }
inline bool parseValue(std::string const & text, unsigned char & out) { return parseChar(text, out); }

inline bool parseValue(std::string const & text, std::string & out)
{
  if (text.size() >= 2 && text.front() == '\'' && text.back() == '\'')
    out = text.substr(1, text.size() - 2);
  else
    out = text;
  return true;
}
}
{{range .Structs}}
template<>
struct Mapper<{{.NativeName}}> {
  {{.NativeName}}& m_obj;
  Mapper({{.NativeName}}& obj) : m_obj(obj) { }

  inline MappingType toPython() {
    return {
{{- range .Fields}}
      {"{{.ExternalFieldKey}}", toString(m_obj.{{.NativeMemberName}}) },
{{- end}}
    };
  }

  inline void toC(MappingType const & fromPy) {
{{- range .Fields}}
{{- if .Bounded}}
    {
      static_assert(sizeof(m_obj.{{.NativeMemberName}}) >= {{.MaxLength}}, "C_Value '{{.NativeMemberName}}' is smaller than its declared length {{.MaxLength}}");
      std::string const & value = fromPy.at("{{.ExternalFieldKey}}");
      if (value.length() >= {{.MaxLength}})
        throw parsing_error("PY_Value '{{.ExternalFieldKey}}' for C_Value '{{.NativeMemberName}}' has invalid length");
      std::memcpy(m_obj.{{.NativeMemberName}}, value.c_str(), value.length() + 1);
    }
{{- else}}
    if (!detail::parseValue(fromPy.at("{{.ExternalFieldKey}}"), m_obj.{{.NativeMemberName}}))
      throw parsing_error("PY_Value '{{.ExternalFieldKey}}' for C_Value '{{.NativeMemberName}}' could not be parsed");
{{- end}}
{{- end}}
  }
};
{{end}}
std::array<std::array<std::string, 3>, {{.TableSize}}> const {{.TableName}} = {
{{- range .Table}}
  std::array<std::string, 3>{ {"{{.Struct}}", "{{.Member}}", "{{.External}}"} },
{{- end}}
};
{{range .Namespaces}}}
{{end}}
#endif // {{.Guard}}
`
